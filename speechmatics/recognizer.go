package speechmatics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"babel.town/lang"
	"babel.town/stt"
)

var (
	ErrMissingAPIKey = errors.New("missing speechmatics api key")
	ErrNotAuthorised = errors.New("speechmatics: not authorised")
)

// DrainTimeout bounds how long a stopped recognition waits for the
// service to deliver its remaining transcripts.
const DrainTimeout = 5 * time.Second

// Recognizer runs real-time Speechmatics recognitions for stt.
type Recognizer struct {
	apiKey string
	url    string
	logger *log.Logger
}

func NewRecognizer(apiKey string, logger *log.Logger) (*Recognizer, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Recognizer{
		apiKey: apiKey,
		url:    WebSocketBaseURL,
		logger: logger,
	}, nil
}

// WithURL points the recognizer at another real-time endpoint.
func (r *Recognizer) WithURL(url string) *Recognizer {
	r.url = url
	return r
}

func (r *Recognizer) Start(
	ctx context.Context,
	language string,
) (stt.Recognition, error) {
	code := lang.Code(language)
	logger := r.logger.With("lang", code)

	client := NewClient(r.apiKey, logger)
	client.WebSocketURL = r.url

	ctx, cancel := context.WithCancel(ctx)

	err := client.ConnectWebSocket(
		ctx,
		TranscriptionConfig{
			Language:       code,
			OperatingPoint: OperatingPointEnhanced,
			EnablePartials: true,
			MaxDelay:       2,
		},
		AudioFormat{Type: "file"},
	)
	if err != nil {
		cancel()
		return nil, err
	}

	rec := &recognition{
		Stream: stt.NewStream(),
		client: client,
		cancel: cancel,
		logger: logger,
		ended:  make(chan struct{}),
	}

	messages, errs := client.ReceiveTranscript(ctx)
	go rec.receive(messages, errs)

	logger.Info("open", "kind", "speechmatics")

	return rec, nil
}

type recognition struct {
	*stt.Stream
	client *Client
	cancel context.CancelFunc
	logger *log.Logger

	mu       sync.Mutex
	seqNo    int
	stopping bool
	ended    chan struct{}
	stopOnce sync.Once
}

func (r *recognition) SendAudio(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopping {
		return stt.ErrStopped
	}
	// Counted and written under one lock so EndOfStream never names a
	// frame that has not been sent.
	if err := r.client.SendAudio(data); err != nil {
		return err
	}
	r.seqNo++
	return nil
}

// Stop ends the audio stream. Transcripts still in flight are delivered
// until the service ends the transcript or DrainTimeout passes.
func (r *recognition) Stop() error {
	var err error
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopping = true
		seqNo := r.seqNo
		r.mu.Unlock()

		err = r.client.EndStream(seqNo)

		go func() {
			select {
			case <-r.ended:
			case <-time.After(DrainTimeout):
				r.logger.Warn("drain timeout")
			}
			r.shutdown()
		}()
	})
	return err
}

func (r *recognition) shutdown() {
	r.Stream.Close()
	r.cancel()
	if err := r.client.CloseWebSocket(); err != nil {
		r.logger.Debug("close", "error", err)
	}
}

func (r *recognition) receive(messages <-chan RTMessage, errs <-chan error) {
	defer close(r.ended)

	for msg := range messages {
		switch msg.Message {
		case MessageAddPartialTranscript, MessageAddTranscript:
			partial := msg.IsPartial()
			if partial {
				r.Speech()
			} else {
				r.logger.Info("hear", "txt", msg.Metadata.Transcript)
			}
			r.Result(msg.Metadata.Transcript, !partial, msg.Confidence())
		case MessageEndOfTranscript:
			r.logger.Info("end of transcript")
			return
		case MessageError:
			r.logger.Error("error", "type", msg.Type, "reason", msg.Reason)
			r.Fail(errorKind(msg.Type), msg.Reason)
			return
		case MessageWarning, MessageInfo:
			r.logger.Debug("notice", "type", msg.Type, "reason", msg.Reason)
		}
	}

	if err, ok := <-errs; ok && err != nil {
		r.logger.Error("connection lost", "error", err)
		r.Fail(stt.ErrorNetwork, err.Error())
	}
}

func errorKind(kind string) string {
	switch kind {
	case "not_authorised", "not_allowed", "insufficient_funds", "quota_exceeded":
		return stt.ErrorNotAllowed
	case "timelimit_exceeded", "buffer_error", "protocol_error":
		return stt.ErrorNetwork
	default:
		return stt.ErrorService
	}
}
