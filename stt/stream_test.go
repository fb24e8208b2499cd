package stt

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
)

func receive(t *testing.T, s *Stream) Event {
	t.Helper()
	select {
	case ev := <-s.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestStreamReplacesInterimUntilFinal(t *testing.T) {
	s := NewStream()

	s.Result("namaste", false, 0.5)
	ev := receive(t, s)
	if ev.Kind != EventResult || ev.ResultIndex != 0 || len(ev.Results) != 1 {
		t.Fatalf("unexpected first event: %+v", ev)
	}

	s.Result("namaste dosto", true, 0.9)
	ev = receive(t, s)
	if ev.ResultIndex != 0 || len(ev.Results) != 1 {
		t.Fatalf("final did not replace interim: %+v", ev)
	}
	if !ev.Results[0].Final || ev.Results[0].Text != "namaste dosto" {
		t.Errorf("result = %+v, want final \"namaste dosto\"", ev.Results[0])
	}

	s.Result("kaise ho", false, 0.4)
	ev = receive(t, s)
	if ev.ResultIndex != 1 || len(ev.Results) != 2 {
		t.Fatalf("interim after final should open a new result: %+v", ev)
	}
	if got := ev.New(); len(got) != 1 || got[0].Text != "kaise ho" {
		t.Errorf("New() = %+v", got)
	}
}

func TestStreamEmptyFinalAfterSpeechIsNoMatch(t *testing.T) {
	s := NewStream()

	s.Result("", true, 0)
	s.Speech()
	s.Result("", true, 0)

	ev := receive(t, s)
	if ev.Kind != EventNoMatch {
		t.Fatalf("event kind = %v, want EventNoMatch", ev.Kind)
	}

	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected extra event: %+v", ev)
	default:
	}
}

func TestStreamCloseFlushesPendingInterim(t *testing.T) {
	s := NewStream()

	s.Result("vanakkam", false, 0.6)
	receive(t, s)

	s.Close()
	s.Close()

	ev := receive(t, s)
	if len(ev.New()) != 1 || !ev.New()[0].Final || ev.New()[0].Text != "vanakkam" {
		t.Fatalf("flushed event = %+v, want final \"vanakkam\"", ev)
	}

	if _, ok := <-s.Events(); ok {
		t.Fatal("events channel should be closed after Close")
	}

	s.Result("late", true, 1)
	s.Fail(ErrorNetwork, "late")
}

func TestDeepgramMessage(t *testing.T) {
	s := &DeepgramSession{
		Stream: NewStream(),
		logger: log.New(io.Discard),
	}

	err := s.Message(&api.MessageResponse{
		IsFinal: true,
		Channel: api.Channel{
			Alternatives: []api.Alternative{
				{Transcript: "  hello there ", Confidence: 0.97},
			},
		},
	})
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}

	ev := receive(t, s.Stream)
	if len(ev.New()) != 1 {
		t.Fatalf("event = %+v", ev)
	}
	r := ev.New()[0]
	if r.Text != "hello there" || !r.Final || r.Confidence != 0.97 {
		t.Errorf("result = %+v", r)
	}

	if err := s.Message(&api.MessageResponse{}); err != nil {
		t.Fatalf("Message() without alternatives error = %v", err)
	}
}

func TestDeepgramErrorKind(t *testing.T) {
	tests := []struct {
		kind        string
		description string
		want        string
	}{
		{"DATA-0000", "connection reset by peer", ErrorNetwork},
		{"INVALID_AUTH", "Invalid credentials.", ErrorNotAllowed},
		{"", "websocket: bad handshake (403)", ErrorNotAllowed},
	}

	for _, tt := range tests {
		if got := deepgramErrorKind(tt.kind, tt.description); got != tt.want {
			t.Errorf("deepgramErrorKind(%q, %q) = %q, want %q", tt.kind, tt.description, got, tt.want)
		}
	}
}

type fakeAudioConn struct {
	mu      sync.Mutex
	written int
	stopped bool
}

func (f *fakeAudioConn) WriteBinary(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written++
	return nil
}

func (f *fakeAudioConn) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func TestDeepgramSendAudioDuringStop(t *testing.T) {
	for round := 0; round < 200; round++ {
		conn := &fakeAudioConn{}
		s := &DeepgramSession{
			Stream:      NewStream(),
			client:      conn,
			logger:      log.New(io.Discard),
			audioBuffer: make(chan []byte, 4),
		}
		go s.pump()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				err := s.SendAudio([]byte{byte(i)})
				if errors.Is(err, ErrStopped) {
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			s.Stop()
		}()
		wg.Wait()

		if err := s.SendAudio([]byte{1}); !errors.Is(err, ErrStopped) {
			t.Fatalf("SendAudio() after Stop error = %v, want ErrStopped", err)
		}
		conn.mu.Lock()
		stopped := conn.stopped
		conn.mu.Unlock()
		if !stopped {
			t.Fatal("connection was not stopped")
		}
	}
}
