// Package translate turns recognized speech into English text.
//
// Every backend implements Translator. Callers that must never fail, such
// as the session controller, use Passthrough, which degrades to the
// original text when the backend errors.
package translate

import (
	"context"
	"fmt"
	"time"

	"babel.town/lang"
)

type Translator interface {
	// Translate renders text, written in the language with two-letter code
	// from (or lang.Auto), in English.
	Translate(ctx context.Context, text string, from string) (string, error)
}

// Result is the outcome of a pass-through translation. Text is always
// usable: it holds the original text when Err is set.
type Result struct {
	Source string
	From   string
	Text   string
	Err    error
}

func (r Result) Translated() bool {
	return r.Err == nil
}

// Passthrough translates text recognized in the locale tag. Failures are
// recorded in the result and never returned.
func Passthrough(ctx context.Context, t Translator, text, tag string) Result {
	from := lang.Code(tag)
	result := Result{Source: text, From: from, Text: text}

	if t == nil {
		result.Err = ErrNoTranslator
		return result
	}

	translated, err := t.Translate(ctx, text, from)
	if err != nil {
		result.Err = err
		return result
	}

	result.Text = translated
	return result
}

// StatusError reports a translation service answering with anything
// other than success.
type StatusError struct {
	Service string
	Status  int
	Details string
}

func (e *StatusError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.Status, e.Details)
}

type timeoutTranslator struct {
	next    Translator
	timeout time.Duration
}

// WithTimeout bounds every call to t. A zero or negative timeout returns t
// unchanged.
func WithTimeout(t Translator, timeout time.Duration) Translator {
	if timeout <= 0 {
		return t
	}
	return &timeoutTranslator{next: t, timeout: timeout}
}

func (t *timeoutTranslator) Translate(ctx context.Context, text string, from string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Translate(ctx, text, from)
}
