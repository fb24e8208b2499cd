package stt

import (
	"strings"
	"sync"
)

// Stream turns engine callbacks into the Event sequence of one
// recognition. Engine adapters embed it and call Result, Speech, Fail and
// Close from their own goroutines.
type Stream struct {
	events  chan Event
	done    chan struct{}
	mu      sync.Mutex
	stopped bool
	sending sync.WaitGroup
	results []Result
	heard   bool
}

func NewStream() *Stream {
	return &Stream{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
}

func (s *Stream) Events() <-chan Event {
	return s.events
}

// Done is closed once Close has been called.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Speech notes that the engine detected voice activity.
func (s *Stream) Speech() {
	s.mu.Lock()
	s.heard = true
	s.mu.Unlock()
}

// Result records a hypothesis. The trailing interim result is replaced
// until a final one arrives. An empty final after detected speech is
// reported as a no-match.
func (s *Stream) Result(text string, final bool, confidence float64) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if text == "" {
		heard := s.heard
		if final {
			s.heard = false
		}
		s.mu.Unlock()
		if final && heard {
			s.emit(Event{Kind: EventNoMatch})
		}
		return
	}

	s.heard = !final
	ev := s.add(Result{Text: text, Final: final, Confidence: confidence})
	s.mu.Unlock()

	s.emit(ev)
}

// Fail reports an engine error of the given kind.
func (s *Stream) Fail(kind, message string) {
	s.emit(Event{Kind: EventError, Error: kind, Message: message})
}

// Close stops delivery. A pending interim result is promoted to final so
// the last words spoken before a stop are not lost. Events is closed once
// in-flight deliveries have finished.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.done)

	var flush *Event
	if n := len(s.results); n > 0 && !s.results[n-1].Final {
		pending := s.results[n-1]
		pending.Final = true
		ev := s.add(pending)
		flush = &ev
	}
	s.mu.Unlock()

	go func() {
		s.sending.Wait()
		if flush != nil {
			s.events <- *flush
		}
		close(s.events)
	}()
}

// add must be called with s.mu held.
func (s *Stream) add(r Result) Event {
	n := len(s.results)
	if n > 0 && !s.results[n-1].Final {
		s.results[n-1] = r
	} else {
		s.results = append(s.results, r)
		n++
	}

	snapshot := make([]Result, len(s.results))
	copy(snapshot, s.results)

	return Event{
		Kind:        EventResult,
		ResultIndex: n - 1,
		Results:     snapshot,
	}
}

func (s *Stream) emit(ev Event) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.sending.Add(1)
	s.mu.Unlock()
	defer s.sending.Done()

	select {
	case s.events <- ev:
	case <-s.done:
	}
}
