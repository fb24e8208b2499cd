package speechmatics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"babel.town/stt"
)

// fakeService plays the real-time protocol: it acknowledges the start,
// answers every audio chunk with a partial, turns the partial into a final
// on EndOfStream and then ends the transcript.
type fakeService struct {
	t        *testing.T
	language chan string
	start    chan StartRecognitionMessage
	ends     chan streamEnd
}

// streamEnd is what the service saw when the stream ended.
type streamEnd struct {
	frames    int
	lastSeqNo int
}

func newFakeService(t *testing.T) *fakeService {
	return &fakeService{
		t:        t,
		language: make(chan string, 1),
		start:    make(chan StartRecognitionMessage, 1),
		ends:     make(chan streamEnd, 1),
	}
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer secret" {
		http.Error(w, "unauthorised", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.t.Errorf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	f.language <- strings.TrimPrefix(r.URL.Path, "/")

	var start StartRecognitionMessage
	if err := conn.ReadJSON(&start); err != nil {
		f.t.Errorf("read start: %v", err)
		return
	}
	f.start <- start
	conn.WriteJSON(map[string]string{"message": MessageRecognitionStarted})

	var heard []string
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind == websocket.BinaryMessage {
			heard = append(heard, string(data))
			conn.WriteJSON(transcript(MessageAddPartialTranscript, strings.Join(heard, " ")))
			continue
		}
		if strings.Contains(string(data), MessageEndOfStream) {
			var end EndOfStreamMessage
			json.Unmarshal(data, &end)
			f.ends <- streamEnd{frames: len(heard), lastSeqNo: end.LastSeqNo}
			conn.WriteJSON(transcript(MessageAddTranscript, strings.Join(heard, " ")))
			conn.WriteJSON(map[string]string{"message": MessageEndOfTranscript})
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func transcript(message, text string) map[string]any {
	return map[string]any{
		"message":  message,
		"metadata": map[string]any{"transcript": text},
		"results": []map[string]any{
			{"alternatives": []map[string]any{{"content": text, "confidence": 0.8}}},
		},
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func next(t *testing.T, events <-chan stt.Event) stt.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("events closed early")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return stt.Event{}
	}
}

func TestRecognizerPartialsAndFinal(t *testing.T) {
	fake := newFakeService(t)
	server := httptest.NewServer(fake)
	defer server.Close()

	recognizer, err := NewRecognizer("secret", log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewRecognizer() error = %v", err)
	}
	recognizer.WithURL(wsURL(server))

	rec, err := recognizer.Start(context.Background(), "ta-IN")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if got := <-fake.language; got != "ta" {
		t.Errorf("connected with language %q, want %q", got, "ta")
	}
	start := <-fake.start
	if !start.TranscriptionConfig.EnablePartials {
		t.Error("partials should be enabled")
	}
	if start.AudioFormat.Type != "file" {
		t.Errorf("audio format = %q, want file", start.AudioFormat.Type)
	}

	if err := rec.SendAudio([]byte("vanakkam")); err != nil {
		t.Fatalf("SendAudio() error = %v", err)
	}

	ev := next(t, rec.Events())
	if r := ev.New(); len(r) != 1 || r[0].Final || r[0].Text != "vanakkam" {
		t.Fatalf("partial event = %+v", ev)
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := rec.SendAudio([]byte("late")); err == nil {
		t.Error("SendAudio() after Stop should fail")
	}

	ev = next(t, rec.Events())
	if r := ev.New(); len(r) != 1 || !r[0].Final || r[0].Text != "vanakkam" {
		t.Fatalf("final event = %+v", ev)
	}

	for range rec.Events() {
	}
}

func TestEndOfStreamCountsSentFrames(t *testing.T) {
	fake := newFakeService(t)
	server := httptest.NewServer(fake)
	defer server.Close()

	recognizer, err := NewRecognizer("secret", log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewRecognizer() error = %v", err)
	}
	recognizer.WithURL(wsURL(server))

	rec, err := recognizer.Start(context.Background(), "hi-IN")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-fake.language
	<-fake.start

	go func() {
		for range rec.Events() {
		}
	}()

	sending := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; ; i++ {
			if i == 20 {
				close(sending)
			}
			if err := rec.SendAudio([]byte(fmt.Sprintf("frame%d", i))); err != nil {
				if !errors.Is(err, stt.ErrStopped) {
					t.Errorf("SendAudio() error = %v", err)
				}
				return
			}
		}
	}()

	<-sending
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	<-done

	select {
	case end := <-fake.ends:
		if end.lastSeqNo != end.frames {
			t.Errorf("last_seq_no = %d, service received %d frames", end.lastSeqNo, end.frames)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service never saw EndOfStream")
	}
}

func TestRecognizerUnauthorised(t *testing.T) {
	server := httptest.NewServer(newFakeService(t))
	defer server.Close()

	recognizer, err := NewRecognizer("wrong", log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewRecognizer() error = %v", err)
	}
	recognizer.WithURL(wsURL(server))

	_, err = recognizer.Start(context.Background(), "hi-IN")
	if !errors.Is(err, ErrNotAuthorised) {
		t.Fatalf("Start() error = %v, want ErrNotAuthorised", err)
	}
}

func TestNewRecognizerRequiresKey(t *testing.T) {
	if _, err := NewRecognizer("", log.New(io.Discard)); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("NewRecognizer(\"\") error = %v, want ErrMissingAPIKey", err)
	}
}

func TestErrorKind(t *testing.T) {
	tests := map[string]string{
		"not_authorised":     stt.ErrorNotAllowed,
		"quota_exceeded":     stt.ErrorNotAllowed,
		"timelimit_exceeded": stt.ErrorNetwork,
		"invalid_model":      stt.ErrorService,
	}
	for kind, want := range tests {
		if got := errorKind(kind); got != want {
			t.Errorf("errorKind(%q) = %q, want %q", kind, got, want)
		}
	}
}
