package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"gemini-prompt/internal/app"
	"gemini-prompt/internal/config"
	"gemini-prompt/internal/gemini"
	"gemini-prompt/internal/httpclient"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}

// run returns the process exit code. transport is nil outside tests.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, transport http.RoundTripper) int {
	fs := flag.NewFlagSet("gemini-prompt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	printURL := fs.Bool("print-url", false, "print the request URL with the key masked and exit")
	checkKey := fs.Bool("check-key", false, "confirm the API key is loaded and exit")
	prompt := fs.String("prompt", "", "prompt text (overrides PROMPT)")
	model := fs.String("model", "", "model id (overrides GEMINI_MODEL)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}
	if *prompt != "" {
		cfg.Prompt = *prompt
	}
	if *model != "" {
		cfg.Model = *model
	}

	logger := newLogger(cfg, stderr)

	if *checkKey {
		fmt.Fprintf(stdout, "API key loaded (%d chars)\n", len(cfg.APIKey))
		return 0
	}

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		Transport:  transport,
	})

	gem := gemini.New(gemini.Options{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	if *printURL {
		fmt.Fprintln(stdout, gem.RedactedEndpoint(cfg.Model))
		return 0
	}

	err = app.Run(ctx, app.Options{
		Client: gem,
		Model:  cfg.Model,
		Prompt: cfg.Prompt,
		Generation: gemini.GenerationConfig{
			Temperature:      cfg.Temperature,
			TopK:             cfg.TopK,
			TopP:             cfg.TopP,
			MaxOutputTokens:  cfg.MaxOutputTokens,
			ResponseMimeType: cfg.ResponseMimeType,
		},
		Stdout:         stdout,
		Stderr:         stderr,
		Logger:         logger,
		FailOnAPIError: cfg.FailOnAPIError,
	})
	if err != nil {
		logger.Error("run failed", "err", err)
		return 1
	}
	return 0
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
