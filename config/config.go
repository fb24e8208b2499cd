package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"babel.town/lang"
	"babel.town/translate"
)

const (
	EngineDeepgram     = "deepgram"
	EngineSpeechmatics = "speechmatics"

	TranslatorMyMemory = "mymemory"
	TranslatorOpenAI   = "openai"
	TranslatorGemini   = "gemini"
)

// File is written by Save when no config file was read.
const File = "config.yaml"

var ErrUnknownEngine = errors.New("unknown recognition engine")
var ErrUnknownTranslator = errors.New("unknown translator")

type Config struct {
	Engine             string
	DeepgramAPIKey     string
	DeepgramModel      string
	SpeechmaticsAPIKey string

	Translator       string
	MyMemoryURL      string
	MyMemoryEmail    string
	OpenAIAPIKey     string
	OpenAIModel      string
	GeminiAPIKey     string
	GeminiModel      string
	TranslateTimeout time.Duration

	HTTPPort int
	Language string
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("engine", EngineDeepgram)
	v.SetDefault("deepgram_model", "nova-2")
	v.SetDefault("translator", TranslatorMyMemory)
	v.SetDefault("mymemory_url", translate.MyMemoryURL)
	v.SetDefault("translate_timeout", 10*time.Second)
	v.SetDefault("http_port", 8081)
	v.SetDefault("language", lang.Default)
}

// Load reads the typed configuration out of v.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		Engine:             v.GetString("engine"),
		DeepgramAPIKey:     v.GetString("deepgram_api_key"),
		DeepgramModel:      v.GetString("deepgram_model"),
		SpeechmaticsAPIKey: v.GetString("speechmatics_api_key"),
		Translator:         v.GetString("translator"),
		MyMemoryURL:        v.GetString("mymemory_url"),
		MyMemoryEmail:      v.GetString("mymemory_email"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIModel:        v.GetString("openai_model"),
		GeminiAPIKey:       v.GetString("gemini_api_key"),
		GeminiModel:        v.GetString("gemini_model"),
		TranslateTimeout:   v.GetDuration("translate_timeout"),
		HTTPPort:           v.GetInt("http_port"),
		Language:           v.GetString("language"),
	}

	switch cfg.Engine {
	case EngineDeepgram, EngineSpeechmatics:
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}

	switch cfg.Translator {
	case TranslatorMyMemory, TranslatorOpenAI, TranslatorGemini:
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnknownTranslator, cfg.Translator)
	}

	return cfg, nil
}

// Save stores values in v and writes them to the config file in use, or
// to File in the working directory.
func Save(v *viper.Viper, values map[string]string) error {
	for key, value := range values {
		if value == "" {
			continue
		}
		v.Set(key, value)
	}

	path := v.ConfigFileUsed()
	if path == "" {
		path = File
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
