package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"babel.town/config"
)

var logger *log.Logger

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(setupCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("engine", "", "Recognition engine (deepgram, speechmatics)")
	flags.String("deepgram-api-key", "", "Deepgram API key")
	flags.String("speechmatics-api-key", "", "Speechmatics API key")
	flags.String("translator", "", "Translator (mymemory, openai, gemini)")
	flags.String("openai-api-key", "", "OpenAI API key")
	flags.String("gemini-api-key", "", "Gemini API key")
	flags.String("language", "", "Recognition language tag")
	flags.Duration("translate-timeout", 0, "Timeout for each translation")
	flags.Bool("debug", false, "Log at debug level")

	for key, flag := range map[string]string{
		"engine":               "engine",
		"deepgram_api_key":     "deepgram-api-key",
		"speechmatics_api_key": "speechmatics-api-key",
		"translator":           "translator",
		"openai_api_key":       "openai-api-key",
		"gemini_api_key":       "gemini-api-key",
		"language":             "language",
		"translate_timeout":    "translate-timeout",
		"debug":                "debug",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())

	logger = log.New(os.Stderr)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.Warn("read config", "error", err)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "babel",
	Short: "Live speech transcription with English translation",
	Long: `Babel listens to speech in an Indian language, transcribes it
and translates every finished sentence into English.`,
}

func loadConfig() config.Config {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Fatal("load config", "error", err)
	}
	return cfg
}

// logToFile sends all logging to path so it does not disturb the screen.
func logToFile(path string) (*os.File, error) {
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	logger = log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})
	return logFile, nil
}

type loggers struct {
	main *log.Logger
	hear *log.Logger
	tell *log.Logger
	http *log.Logger
	sess *log.Logger
}

func createLoggers() loggers {
	logLevel := log.InfoLevel
	if viper.GetBool("debug") {
		logLevel = log.DebugLevel
	}

	logger.SetLevel(logLevel)
	logger.SetReportCaller(true)
	logger.SetCallerFormatter(
		func(file string, line int, funcName string) string {
			path, err := filepath.Rel(".", file)
			if err != nil {
				path = file
			}
			return fmt.Sprintf("%s:%d", path, line)
		},
	)

	styles := log.DefaultStyles()
	styles.Prefix = styles.Prefix.
		Bold(false).Transform(func(s string) string {
		return strings.TrimSuffix(s, ":")
	})
	styles.Levels[log.InfoLevel] = styles.Levels[log.InfoLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Levels[log.ErrorLevel] = styles.Levels[log.ErrorLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Message = styles.Message.Bold(true).Width(24)
	styles.Key = styles.Key.MarginLeft(1).
		Bold(false).
		Foreground(lipgloss.Color("#ff8800"))

	logger.SetStyles(styles)

	return loggers{
		main: logger.WithPrefix("main"),
		hear: logger.WithPrefix("hear"),
		tell: logger.WithPrefix("tell"),
		http: logger.WithPrefix("http"),
		sess: logger.WithPrefix("sess"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
