package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gemini-prompt/internal/gemini"
)

// ErrAPIFailure is returned for a non-2xx reply when FailOnAPIError is set.
var ErrAPIFailure = errors.New("gemini API request failed")

type Generator interface {
	GenerateContent(ctx context.Context, model string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)
}

type Options struct {
	Client     Generator
	Model      string
	Prompt     string
	Generation gemini.GenerationConfig

	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// FailOnAPIError makes an error status a failed run instead of a reported one.
	FailOnAPIError bool
}

// Run sends the prompt once and prints each returned text part.
//
// An error status from the API is reported on Stderr and is not a failure
// unless FailOnAPIError is set. Transport and decode errors are returned.
func Run(ctx context.Context, opts Options) error {
	if opts.Client == nil {
		return errors.New("gemini client is nil")
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	req := gemini.NewRequest(opts.Prompt, opts.Generation)

	resp, err := opts.Client.GenerateContent(ctx, opts.Model, req)
	if err != nil {
		var apiErr *gemini.APIError
		if !errors.As(err, &apiErr) {
			return err
		}

		fmt.Fprintf(stderr, "Failed to send request. Status: %s\n", apiErr.Status)
		fmt.Fprintf(stderr, "Error: %s\n", apiErr.Body)
		logger.Info("gemini api error", "status", apiErr.StatusCode)

		if opts.FailOnAPIError {
			return fmt.Errorf("%w: status %d", ErrAPIFailure, apiErr.StatusCode)
		}
		return nil
	}

	texts, ok := resp.Texts()
	if !ok {
		fmt.Fprintln(stderr, "No candidates found in the response")
		return nil
	}

	for _, text := range texts {
		if _, err := fmt.Fprintf(stdout, "Response: %s\n", text); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	logger.Debug("printed response", "parts", len(texts))

	return nil
}
