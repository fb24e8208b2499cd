package www

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"babel.town/lang"
	"babel.town/stt"
	"babel.town/translate"
)

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type Options struct {
	// Recognizer is nil when no engine is configured; pages then show the
	// unsupported status.
	Recognizer stt.Recognizer
	Translator translate.Translator
	Language   string
	Logger     *log.Logger
	// SessionLogger is handed to every session controller.
	SessionLogger *log.Logger
}

type Server struct {
	Router *chi.Mux

	recognizer stt.Recognizer
	translator translate.Translator
	language   string
	logger     *log.Logger
	sessLogger *log.Logger
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.SessionLogger == nil {
		opts.SessionLogger = opts.Logger
	}
	if opts.Language == "" {
		opts.Language = lang.Default
	}

	s := &Server{
		Router:     chi.NewRouter(),
		recognizer: opts.Recognizer,
		translator: opts.Translator,
		language:   opts.Language,
		logger:     opts.Logger,
		sessLogger: opts.SessionLogger,
	}

	r := s.Router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/languages", s.handleLanguages)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", s.handleSocket)

	return s
}

func (s *Server) handleIndex(w http.ResponseWriter, req *http.Request) {
	data := struct {
		Languages []lang.Language
		Selected  string
	}{
		Languages: lang.Supported(),
		Selected:  s.language,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("render index", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func (s *Server) handleLanguages(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(lang.Supported()); err != nil {
		s.logger.Error("encode languages", "error", err)
	}
}

func (s *Server) Serve(port int) error {
	s.logger.Info("http", "url", fmt.Sprintf("http://localhost:%d", port))
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.Router)
}
