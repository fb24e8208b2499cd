package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"babel.town/config"
	"babel.town/speechmatics"
	"babel.town/stt"
	"babel.town/translate"
)

// newRecognizer builds the configured engine. A missing API key is
// reported as an error with a nil recognizer.
func newRecognizer(cfg config.Config, logger *log.Logger) (stt.Recognizer, error) {
	switch cfg.Engine {
	case config.EngineSpeechmatics:
		r, err := speechmatics.NewRecognizer(cfg.SpeechmaticsAPIKey, logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.EngineDeepgram:
		c, err := stt.NewDeepgramClient(cfg.DeepgramAPIKey, cfg.DeepgramModel, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownEngine, cfg.Engine)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newTranslator builds the configured translator, bounded by the
// configured timeout. The closer releases its client.
func newTranslator(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (translate.Translator, io.Closer, error) {
	var (
		t      translate.Translator
		closer io.Closer = nopCloser{}
	)

	switch cfg.Translator {
	case config.TranslatorMyMemory:
		t = translate.NewMyMemory(cfg.MyMemoryURL, cfg.MyMemoryEmail, logger)
	case config.TranslatorOpenAI:
		o, err := translate.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, nil, err
		}
		t = o
	case config.TranslatorGemini:
		g, err := translate.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		t, closer = g, g
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownTranslator, cfg.Translator)
	}

	logger.Debug("translator", "kind", cfg.Translator, "timeout", cfg.TranslateTimeout)
	return translate.WithTimeout(t, cfg.TranslateTimeout), closer, nil
}
