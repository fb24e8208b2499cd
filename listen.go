package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"babel.town/lang"
	"babel.town/session"
	"babel.town/tui"
)

var listenCmd = &cobra.Command{
	Use:   "listen <file>",
	Short: "Transcribe and translate an audio file",
	Long: `Stream an audio file to the recognition engine as if it were spoken
live, and show the transcript with its English translations.`,
	Args: cobra.ExactArgs(1),
	Run:  runListen,
}

func init() {
	listenCmd.Flags().Int("chunk", 8192, "Bytes of audio sent per tick")
	listenCmd.Flags().Duration("tick", 100*time.Millisecond, "Interval between chunks")
	listenCmd.Flags().String("log", "babel.log", "Log file while the screen is in use")
}

func runListen(cmd *cobra.Command, args []string) {
	logPath, _ := cmd.Flags().GetString("log")
	chunk, _ := cmd.Flags().GetInt("chunk")
	tick, _ := cmd.Flags().GetDuration("tick")

	logFile, err := logToFile(logPath)
	if err != nil {
		logger.Fatal("open log file", "error", err)
	}
	defer logFile.Close()

	log := createLoggers()
	cfg := loadConfig()

	audio, err := os.Open(args[0])
	if err != nil {
		log.main.Fatal("open audio", "error", err)
	}
	defer audio.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recognizer, err := newRecognizer(cfg, log.hear)
	if err != nil {
		log.main.Fatal("create recognizer", "engine", cfg.Engine, "error", err)
	}

	translator, closer, err := newTranslator(ctx, cfg, log.tell)
	if err != nil {
		log.main.Fatal("create translator", "error", err)
	}
	defer closer.Close()

	display := tui.NewDisplay()
	ctrl, err := session.New(session.Options{
		Recognizer: recognizer,
		Translator: translator,
		Display:    display,
		Logger:     log.sess,
		Language:   cfg.Language,
	})
	if err != nil {
		log.main.Fatal("create session", "error", err)
	}
	defer ctrl.Close()

	if err := ctrl.StartRecording(ctx); err != nil {
		log.main.Fatal("start recording", "error", err)
	}

	go func() {
		if err := feed(ctx, ctrl, audio, chunk, tick); err != nil {
			log.main.Error("feed audio", "error", err)
		}
		if err := ctrl.StopRecording(); err != nil {
			log.main.Error("stop recording", "error", err)
		}
		ctrl.Wait()
		log.main.Info("done", "file", args[0])
	}()

	title := fmt.Sprintf("babel · %s", lang.Name(cfg.Language))
	if err := tui.Run(display, title); err != nil {
		log.main.Fatal("run ui", "error", err)
	}
}

// feed sends r to the session in chunks of size bytes, one chunk per tick.
func feed(
	ctx context.Context,
	ctrl interface{ Feed([]byte) error },
	r io.Reader,
	size int,
	tick time.Duration,
) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	buf := make([]byte, size)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if err := ctrl.Feed(data); err != nil {
				return fmt.Errorf("failed to send audio: %w", err)
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read audio: %w", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
