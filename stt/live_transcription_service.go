package stt

import (
	"context"
	"errors"
)

type EventKind int

const (
	EventResult EventKind = iota
	EventNoMatch
	EventError
)

// Error kinds reported by recognition engines.
const (
	ErrorNetwork    = "network"
	ErrorNotAllowed = "not-allowed"
	ErrorService    = "service"
)

// ErrStopped is returned by SendAudio once a recognition has been stopped.
var ErrStopped = errors.New("recognition stopped")

type Result struct {
	Text       string
	Final      bool
	Confidence float64
}

// Event is one delivery from a running recognition. Results holds every
// result of the recognition so far; ResultIndex is the first one that is
// new since the previous event.
type Event struct {
	Kind        EventKind
	ResultIndex int
	Results     []Result
	Error       string
	Message     string
}

// New returns the results that changed with this event.
func (e Event) New() []Result {
	if e.ResultIndex < 0 || e.ResultIndex >= len(e.Results) {
		return nil
	}
	return e.Results[e.ResultIndex:]
}

type Recognition interface {
	SendAudio(data []byte) error
	Events() <-chan Event
	Stop() error
}

// Recognizer starts continuous recognitions with interim results. The
// language is fixed for the lifetime of a recognition.
type Recognizer interface {
	Start(ctx context.Context, language string) (Recognition, error)
}
