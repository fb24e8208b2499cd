package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"babel.town/www"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serve the recording page. Every page opens a websocket that carries
its microphone audio and receives the session view.`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Port to run the HTTP server on")
	viper.BindPFlag("http_port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) {
	log := createLoggers()
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		os.Interrupt,
	)
	defer stop()

	recognizer, err := newRecognizer(cfg, log.hear)
	if err != nil {
		log.main.Warn(
			"recognition unavailable",
			"engine", cfg.Engine,
			"error", err,
		)
	}

	translator, closer, err := newTranslator(ctx, cfg, log.tell)
	if err != nil {
		log.main.Fatal("create translator", "error", err)
	}
	defer closer.Close()

	server := www.NewServer(www.Options{
		Recognizer:    recognizer,
		Translator:    translator,
		Language:      cfg.Language,
		Logger:        log.http,
		SessionLogger: log.sess,
	})

	errs := make(chan error, 1)
	go func() {
		errs <- server.Serve(cfg.HTTPPort)
	}()

	select {
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.main.Fatal("start HTTP server", "error", err)
		}
	case <-ctx.Done():
		log.main.Info("shutdown")
	}
}
