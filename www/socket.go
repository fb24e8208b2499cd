package www

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"babel.town/session"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// clientMessage is a text frame sent by the page. Binary frames carry
// microphone audio.
type clientMessage struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
	Error    string `json:"error,omitempty"`
}

// viewSink hands views to a writer goroutine. Show never blocks: when the
// writer falls behind only the newest view is kept.
type viewSink struct {
	conn   *websocket.Conn
	logger *log.Logger
	views  chan session.View
	done   chan struct{}
	exited chan struct{}
}

func newViewSink(conn *websocket.Conn, logger *log.Logger) *viewSink {
	s := &viewSink{
		conn:   conn,
		logger: logger,
		views:  make(chan session.View, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *viewSink) Show(v session.View) {
	for {
		select {
		case s.views <- v:
			return
		default:
		}
		select {
		case <-s.views:
		default:
		}
	}
}

func (s *viewSink) run() {
	defer close(s.exited)
	for {
		select {
		case v := <-s.views:
			if err := s.write(v); err != nil {
				s.logger.Warn("write view", "error", err)
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *viewSink) write(v session.View) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

func (s *viewSink) stop() {
	close(s.done)
	<-s.exited
}

func (s *Server) handleSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.Error("upgrade", "error", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	logger := s.sessLogger.With("ws", id)
	logger.Info("connect", "remote", req.RemoteAddr)

	ctrl, err := s.newController(conn, logger)
	if errors.Is(err, session.ErrRecognizerUnavailable) {
		logger.Warn("no recognizer configured")
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(session.UnsupportedView(s.language)); err != nil {
			logger.Warn("write view", "error", err)
		}
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "unsupported"),
		)
		return
	}
	if err != nil {
		logger.Error("create session", "error", err)
		return
	}
	defer ctrl.close()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("read", "error", err)
			}
			break
		}

		switch kind {
		case websocket.BinaryMessage:
			if err := ctrl.Feed(data); err != nil && !errors.Is(err, session.ErrNotRecording) {
				logger.Warn("feed", "error", err)
			}
		case websocket.TextMessage:
			s.dispatch(req, ctrl, data, logger)
		}
	}

	logger.Info("disconnect")
}

func (s *Server) newController(conn *websocket.Conn, logger *log.Logger) (*sessionConn, error) {
	if s.recognizer == nil {
		return nil, session.ErrRecognizerUnavailable
	}

	sink := newViewSink(conn, logger)
	ctrl, err := session.New(session.Options{
		Recognizer: s.recognizer,
		Translator: s.translator,
		Display:    sink,
		Logger:     logger,
		Language:   s.language,
	})
	if err != nil {
		sink.stop()
		return nil, err
	}
	return &sessionConn{Controller: ctrl, sink: sink}, nil
}

// sessionConn ties a controller to the socket it displays on.
type sessionConn struct {
	*session.Controller
	sink *viewSink
}

func (c *sessionConn) close() {
	c.Controller.Close()
	c.sink.stop()
}

func (s *Server) dispatch(req *http.Request, ctrl *sessionConn, data []byte, logger *log.Logger) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Warn("bad message", "error", err)
		return
	}

	switch msg.Type {
	case "start":
		if msg.Language != "" {
			ctrl.OnLanguageChange(msg.Language)
		}
		if err := ctrl.StartRecording(req.Context()); err != nil {
			logger.Warn("start", "error", err)
		}
	case "stop":
		if err := ctrl.StopRecording(); err != nil {
			logger.Warn("stop", "error", err)
		}
	case "language":
		ctrl.OnLanguageChange(msg.Language)
	case "error":
		ctrl.OnRecognitionError(msg.Error)
	default:
		logger.Warn("unknown message", "type", msg.Type)
	}
}
