package speechmatics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	WebSocketBaseURL = "wss://eu2.rt.speechmatics.com/v2"
	PingInterval     = 30 * time.Second
	PongTimeout      = 60 * time.Second
)

// Real-time protocol message names.
const (
	MessageStartRecognition     = "StartRecognition"
	MessageRecognitionStarted   = "RecognitionStarted"
	MessageAudioAdded           = "AudioAdded"
	MessageAddPartialTranscript = "AddPartialTranscript"
	MessageAddTranscript        = "AddTranscript"
	MessageEndOfStream          = "EndOfStream"
	MessageEndOfTranscript      = "EndOfTranscript"
	MessageError                = "Error"
	MessageWarning              = "Warning"
	MessageInfo                 = "Info"
)

type Client struct {
	APIKey       string
	WebSocketURL string
	WSConn       *websocket.Conn

	writeMu sync.Mutex
	logger  *log.Logger
}

func NewClient(apiKey string, logger *log.Logger) *Client {
	return &Client{
		APIKey:       apiKey,
		WebSocketURL: WebSocketBaseURL,
		logger:       logger,
	}
}

type TranscriptionConfig struct {
	Language       string         `json:"language"`
	OperatingPoint OperatingPoint `json:"operating_point,omitempty"`
	EnablePartials bool           `json:"enable_partials,omitempty"`
	MaxDelay       float64        `json:"max_delay,omitempty"`
}

type OperatingPoint string

const (
	OperatingPointStandard OperatingPoint = "standard"
	OperatingPointEnhanced OperatingPoint = "enhanced"
)

type AudioFormat struct {
	Type       string `json:"type"`
	Encoding   string `json:"encoding,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

type StartRecognitionMessage struct {
	Message             string              `json:"message"`
	AudioFormat         AudioFormat         `json:"audio_format"`
	TranscriptionConfig TranscriptionConfig `json:"transcription_config"`
}

type EndOfStreamMessage struct {
	Message   string `json:"message"`
	LastSeqNo int    `json:"last_seq_no"`
}

// RTMessage is any message the real-time service sends. Only the fields
// relevant to Message are populated.
type RTMessage struct {
	Message  string `json:"message"`
	Metadata struct {
		Transcript string  `json:"transcript"`
		StartTime  float64 `json:"start_time"`
		EndTime    float64 `json:"end_time"`
	} `json:"metadata"`
	Results []struct {
		Alternatives []struct {
			Confidence float64 `json:"confidence"`
			Content    string  `json:"content"`
		} `json:"alternatives"`
		StartTime float64 `json:"start_time"`
		EndTime   float64 `json:"end_time"`
		Type      string  `json:"type"`
	} `json:"results"`
	SeqNo  int    `json:"seq_no"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (m RTMessage) IsPartial() bool {
	return m.Message == MessageAddPartialTranscript
}

// Confidence is the mean confidence of the first alternatives.
func (m RTMessage) Confidence() float64 {
	if len(m.Results) == 0 {
		return 0
	}
	var sum float64
	var n int
	for _, r := range m.Results {
		if len(r.Alternatives) > 0 {
			sum += r.Alternatives[0].Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (c *Client) ConnectWebSocket(ctx context.Context, config TranscriptionConfig, audioFormat AudioFormat) error {
	dialer := websocket.DefaultDialer
	header := http.Header{}
	header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))

	url := fmt.Sprintf("%s/%s", c.WebSocketURL, config.Language)
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: %s", ErrNotAuthorised, resp.Status)
		}
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}

	c.WSConn = conn

	go c.keepAlive(ctx, conn)

	startMsg := StartRecognitionMessage{
		Message:             MessageStartRecognition,
		AudioFormat:         audioFormat,
		TranscriptionConfig: config,
	}

	if err := c.writeJSON(startMsg); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send StartRecognition message: %w", err)
	}

	return nil
}

func (c *Client) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(PongTimeout)); err != nil {
				c.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}

func (c *Client) SendAudio(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.WSConn == nil {
		return fmt.Errorf("WebSocket connection not established")
	}

	if err := c.WSConn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}

	return nil
}

func (c *Client) EndStream(lastSeqNo int) error {
	endMsg := EndOfStreamMessage{
		Message:   MessageEndOfStream,
		LastSeqNo: lastSeqNo,
	}

	if err := c.writeJSON(endMsg); err != nil {
		return fmt.Errorf("failed to send EndOfStream message: %w", err)
	}

	return nil
}

func (c *Client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.WSConn == nil {
		return fmt.Errorf("WebSocket connection not established")
	}
	return c.WSConn.WriteJSON(v)
}

// ReceiveTranscript reads messages until the connection closes or ctx is
// done. Unexpected closes are reported on the error channel.
func (c *Client) ReceiveTranscript(ctx context.Context) (<-chan RTMessage, <-chan error) {
	messages := make(chan RTMessage)
	errChan := make(chan error, 1)
	conn := c.WSConn

	go func() {
		defer close(messages)
		defer close(errChan)

		for {
			var msg RTMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					errChan <- fmt.Errorf("WebSocket closed unexpectedly: %w", err)
				}
				return
			}

			select {
			case messages <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return messages, errChan
}

func (c *Client) CloseWebSocket() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.WSConn == nil {
		return nil
	}

	err := c.WSConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		c.logger.Debug("close message failed", "error", err)
	}

	if err := c.WSConn.Close(); err != nil {
		return fmt.Errorf("failed to close WebSocket connection: %w", err)
	}

	c.WSConn = nil
	return nil
}
