// Package session holds the state of one speaking session: whether the
// microphone is being recognized, the accumulated transcript with its
// English translations, and the status shown to the user.
//
// A Controller relays recognition events to a Display and translates every
// final segment. Translations run concurrently; their results enter the
// transcript in the order the segments were recognized.
package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"babel.town/etc"
	"babel.town/lang"
	"babel.town/stt"
	"babel.town/translate"
)

type Options struct {
	Recognizer stt.Recognizer
	Translator translate.Translator
	Display    Display
	Logger     *log.Logger
	// Language is the recognition locale selected initially.
	Language string
}

type Controller struct {
	recognizer stt.Recognizer
	translator translate.Translator
	display    Display
	logger     *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	idle           *sync.Cond
	recording      bool
	starting       bool
	closed         bool
	language       string
	activeLanguage string
	status         Status
	transcript     strings.Builder
	speaking       string
	rec            stt.Recognition
	queue          queue
	loops          sync.WaitGroup
}

// New creates a session. Without a recognizer there is nothing to
// control, so New refuses with ErrRecognizerUnavailable.
func New(opts Options) (*Controller, error) {
	if opts.Recognizer == nil {
		return nil, ErrRecognizerUnavailable
	}
	if opts.Display == nil {
		opts.Display = nopDisplay{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Language == "" {
		opts.Language = lang.Default
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		recognizer: opts.Recognizer,
		translator: opts.Translator,
		display:    opts.Display,
		logger:     opts.Logger,
		ctx:        ctx,
		cancel:     cancel,
		language:   opts.Language,
		status:     StatusIdle,
	}
	c.idle = sync.NewCond(&c.mu)

	c.mu.Lock()
	c.show()
	c.mu.Unlock()

	return c, nil
}

// StartRecording starts recognition in the selected language. A failed
// start, including a start while already recording, leaves the session
// idle with the start error shown.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.recording || c.starting {
		c.logger.Warn("start rejected", "error", ErrAlreadyRecording)
		if err := c.stopLocked(); err != nil {
			c.logger.Error("stop", "error", err)
		}
		c.status = StatusStartError
		c.show()
		c.mu.Unlock()
		return &EngineError{Op: "start", Err: ErrAlreadyRecording}
	}
	c.starting = true
	language := c.language
	c.mu.Unlock()

	rec, err := c.recognizer.Start(ctx, language)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.starting = false

	if err != nil {
		c.logger.Error("start", "lang", language, "error", err)
		c.recording = false
		c.status = StatusStartError
		c.show()
		return &EngineError{Op: "start", Err: err}
	}

	if c.closed {
		rec.Stop()
		return ErrClosed
	}

	c.logger.Info("start", "lang", language)

	c.rec = rec
	c.recording = true
	c.activeLanguage = language
	c.status = StatusRecording
	c.show()

	c.loops.Add(1)
	go c.loop(rec)

	return nil
}

// StopRecording stops recognition. The session is idle afterwards even if
// the engine fails to stop; that failure is returned as an *EngineError.
func (c *Controller) StopRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.stopLocked()
	c.status = StatusStopped
	c.show()

	if err != nil {
		c.logger.Error("stop", "error", err)
		return &EngineError{Op: "stop", Err: err}
	}
	return nil
}

func (c *Controller) stopLocked() error {
	var err error
	if c.rec != nil {
		err = c.rec.Stop()
		c.rec = nil
		c.logger.Info("stop", "lang", c.activeLanguage)
	}
	c.recording = false
	return err
}

// OnLanguageChange selects the language for the next start. A running
// recognition keeps the language it was started with.
func (c *Controller) OnLanguageChange(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !lang.Known(tag) {
		c.logger.Warn("unmapped language", "lang", tag, "code", lang.Auto)
	}
	c.language = tag
	c.show()
}

// OnRecognitionResult handles the results that are new in ev. Final
// results are queued for translation; interim results become the
// speaking line.
func (c *Controller) OnRecognitionResult(ev stt.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	source := c.activeLanguage
	if source == "" {
		source = c.language
	}

	var interim strings.Builder
	for _, result := range ev.New() {
		if !result.Final {
			interim.WriteString(result.Text)
			continue
		}

		seg := c.queue.push(etc.NewFreshID(), result.Text)
		c.logger.Debug("segment", "id", seg.id, "seq", seg.seq, "txt", seg.source)
		go c.translateSegment(seg, source)
	}

	c.speaking = interim.String()
	c.show()
}

func (c *Controller) translateSegment(seg *segment, tag string) {
	result := translate.Passthrough(c.ctx, c.translator, seg.source, tag)
	if result.Err != nil {
		c.logger.Warn("translation failed", "id", seg.id, "from", result.From, "error", result.Err)
	} else {
		c.logger.Debug("translated", "id", seg.id, "txt", result.Text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ready := range c.queue.complete(seg, result) {
		fmt.Fprintf(
			&c.transcript,
			"Original: %s\nEnglish Translation: %s\n\n",
			ready.source,
			ready.result.Text,
		)
	}
	if c.queue.len() == 0 {
		c.idle.Broadcast()
	}
	c.show()
}

// Translate renders text, recognized in the locale tag, in English. It
// makes exactly one call to the translator and degrades to the original
// text on failure.
func (c *Controller) Translate(ctx context.Context, text, tag string) translate.Result {
	result := translate.Passthrough(ctx, c.translator, text, tag)
	if result.Err != nil {
		c.logger.Warn("translation failed", "from", result.From, "error", result.Err)
	}
	return result
}

// OnNoMatch reports that speech was heard but not recognized.
func (c *Controller) OnNoMatch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = StatusNoSpeech
	c.show()
}

// OnRecognitionError stops the session and shows the message for kind.
func (c *Controller) OnRecognitionError(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recognitionErrorLocked(kind)
}

func (c *Controller) recognitionErrorLocked(kind string) {
	c.logger.Error("recognition error", "kind", kind)

	if err := c.stopLocked(); err != nil {
		c.logger.Error("stop", "error", err)
	}
	c.status = errorStatus(kind)
	c.show()
}

func (c *Controller) loop(rec stt.Recognition) {
	defer c.loops.Done()

	for ev := range rec.Events() {
		switch ev.Kind {
		case stt.EventResult:
			c.OnRecognitionResult(ev)
		case stt.EventNoMatch:
			c.OnNoMatch()
		case stt.EventError:
			c.mu.Lock()
			if c.rec == rec {
				c.recognitionErrorLocked(ev.Error)
			} else {
				c.logger.Debug("stale recognition error", "kind", ev.Error)
			}
			c.mu.Unlock()
		}
	}
}

// Feed passes microphone audio to the running recognition.
func (c *Controller) Feed(audio []byte) error {
	c.mu.Lock()
	rec := c.rec
	c.mu.Unlock()

	if rec == nil {
		return ErrNotRecording
	}
	return rec.SendAudio(audio)
}

// Wait blocks until every queued translation has entered the transcript.
func (c *Controller) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.queue.len() > 0 {
		c.idle.Wait()
	}
}

// Close stops recording and aborts in-flight translations, which then
// enter the transcript untranslated.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	err := c.stopLocked()
	c.cancel()
	c.mu.Unlock()

	c.loops.Wait()
	return err
}

func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

func (c *Controller) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.String()
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	return View{
		Status:       c.status,
		StatusName:   c.status.String(),
		StatusText:   c.status.Message(),
		Recording:    c.recording,
		StartEnabled: !c.recording,
		StopEnabled:  c.recording,
		Language:     c.language,
		Transcript:   c.transcript.String(),
		Speaking:     c.speaking,
	}
}

func (c *Controller) show() {
	c.display.Show(c.viewLocked())
}
