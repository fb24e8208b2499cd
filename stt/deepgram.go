package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/listen"
)

var ErrMissingToken = errors.New("missing deepgram api key")

type DeepgramClient struct {
	token  string
	model  string
	logger *log.Logger
}

func NewDeepgramClient(
	token string,
	model string,
	logger *log.Logger,
) (*DeepgramClient, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if model == "" {
		model = "nova-2"
	}
	return &DeepgramClient{
		token:  token,
		model:  model,
		logger: logger,
	}, nil
}

func (c *DeepgramClient) Start(
	ctx context.Context,
	language string,
) (Recognition, error) {
	cOptions := &interfaces.ClientOptions{
		EnableKeepAlive: true,
	}
	// The page sends webm/opus chunks, so encoding and sample rate are
	// left for Deepgram to read from the container.
	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:          c.model,
		Language:       language,
		Punctuate:      true,
		SmartFormat:    true,
		InterimResults: true,
		UtteranceEndMs: "1000",
		VadEvents:      true,
	}

	session := &DeepgramSession{
		Stream:      NewStream(),
		logger:      c.logger.With("lang", language),
		audioBuffer: make(chan []byte, 100),
	}

	client, err := listen.NewWebSocket(
		ctx,
		c.token,
		cOptions,
		tOptions,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"error creating LiveTranscription connection: %w",
			err,
		)
	}

	if !client.Connect() {
		return nil, fmt.Errorf("failed to connect to Deepgram")
	}
	session.client = client

	go session.pump()

	return session, nil
}

// audioConn is the part of the SDK's websocket client a session writes to.
type audioConn interface {
	WriteBinary(data []byte) error
	Stop()
}

// DeepgramSession implements both Recognition and the SDK's message
// callback.
type DeepgramSession struct {
	*Stream
	client      audioConn
	logger      *log.Logger
	audioBuffer chan []byte
	stopOnce    sync.Once
}

// Stop ends the recognition. audioBuffer is never closed; pump exits on
// Done, so a concurrent SendAudio cannot hit a closed channel.
func (s *DeepgramSession) Stop() error {
	s.stopOnce.Do(func() {
		s.Stream.Close()
		s.client.Stop()
	})
	return nil
}

func (s *DeepgramSession) SendAudio(data []byte) error {
	select {
	case <-s.Done():
		return ErrStopped
	default:
	}
	select {
	case s.audioBuffer <- data:
		return nil
	default:
		return fmt.Errorf("audio buffer full")
	}
}

func (s *DeepgramSession) pump() {
	for {
		select {
		case data := <-s.audioBuffer:
			if err := s.client.WriteBinary(data); err != nil {
				s.logger.Error("failed to write audio data", "error", err)
			}
		case <-s.Done():
			return
		}
	}
}

func (s *DeepgramSession) Message(mr *api.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}

	alt := mr.Channel.Alternatives[0]
	transcript := strings.TrimSpace(alt.Transcript)

	if mr.IsFinal {
		s.logger.Info("hear", "txt", transcript)
	} else if transcript != "" {
		s.logger.Debug("hear", "tmp", transcript)
	}

	s.Result(transcript, mr.IsFinal, alt.Confidence)
	return nil
}

func (s *DeepgramSession) Open(ocr *api.OpenResponse) error {
	s.logger.Info("open", "kind", "deepgram")
	return nil
}

func (s *DeepgramSession) Metadata(md *api.MetadataResponse) error {
	s.logger.Debug("metadata", "metadata", md)
	return nil
}

func (s *DeepgramSession) SpeechStarted(
	ssr *api.SpeechStartedResponse,
) error {
	s.logger.Debug("speech start", "timestamp", ssr.Timestamp)
	s.Speech()
	return nil
}

func (s *DeepgramSession) UtteranceEnd(ur *api.UtteranceEndResponse) error {
	s.logger.Debug("utterance end", "timestamp", ur.LastWordEnd)
	return nil
}

func (s *DeepgramSession) Close(ocr *api.CloseResponse) error {
	s.logger.Info("closed", "reason", ocr.Type)
	return nil
}

func (s *DeepgramSession) Error(er *api.ErrorResponse) error {
	s.logger.Error("error", "type", er.Type, "description", er.Description)
	s.Fail(deepgramErrorKind(er.Type, er.Description), er.Description)
	return nil
}

func (s *DeepgramSession) UnhandledEvent(byData []byte) error {
	s.logger.Warn("unhandled event", "data", string(byData))
	return nil
}

// deepgramErrorKind classifies a Deepgram error. Authentication and
// permission failures are reported like a denied microphone; everything
// else reaching us over the socket is a network problem.
func deepgramErrorKind(kind, description string) string {
	text := strings.ToLower(kind + " " + description)
	for _, word := range []string{"auth", "forbidden", "401", "403", "permission"} {
		if strings.Contains(text, word) {
			return ErrorNotAllowed
		}
	}
	return ErrorNetwork
}
