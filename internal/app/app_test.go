package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gemini-prompt/internal/gemini"
)

func newServer(t *testing.T, status int, body string) *gemini.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return gemini.New(gemini.Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
}

func run(t *testing.T, client Generator, failOnAPIError bool) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	err = Run(context.Background(), Options{
		Client:         client,
		Model:          "test-model",
		Prompt:         "Explain how AI works",
		Generation:     gemini.DefaultGenerationConfig(),
		Stdout:         &out,
		Stderr:         &errOut,
		FailOnAPIError: failOnAPIError,
	})
	return out.String(), errOut.String(), err
}

func TestRunPrintsOneLinePerCandidate(t *testing.T) {
	texts := []string{"first", "  spaced\ttext  ", "Grüße 🌍"}

	var b strings.Builder
	b.WriteString(`{"candidates":[`)
	for i, text := range texts {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"content":{"role":"model","parts":[{"text":%q}]}}`, text)
	}
	b.WriteString(`]}`)

	stdout, stderr, err := run(t, newServer(t, http.StatusOK, b.String()), false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want empty", stderr)
	}

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	want := []string{"Response: first", "Response:   spaced\ttext  ", "Response: Grüße 🌍"}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
}

func TestRunNoCandidates(t *testing.T) {
	for _, body := range []string{`{}`, `{"candidates":[]}`} {
		stdout, stderr, err := run(t, newServer(t, http.StatusOK, body), false)
		if err != nil {
			t.Fatalf("Run(%s) error = %v", body, err)
		}
		if stdout != "" {
			t.Errorf("Run(%s) stdout = %q, want empty", body, stdout)
		}
		if stderr != "No candidates found in the response\n" {
			t.Errorf("Run(%s) stderr = %q", body, stderr)
		}
	}
}

func TestRunSkipsCandidateWithoutContent(t *testing.T) {
	body := `{"candidates":[{"finishReason":"SAFETY"},{"content":{"parts":[{"text":"second"}]}},{"content":{}}]}`

	stdout, stderr, err := run(t, newServer(t, http.StatusOK, body), false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stdout != "Response: second\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want empty", stderr)
	}
}

func TestRunAPIErrorStatus(t *testing.T) {
	tests := []struct {
		status int
		body   string
	}{
		{http.StatusTooManyRequests, `{"error":{"code":429,"message":"Resource has been exhausted"}}`},
		{http.StatusInternalServerError, "upstream exploded\n  {\"candidates\": [{\"content\": {\"parts\": [{\"text\": \"nope\"}]}}]}"},
	}

	for _, tt := range tests {
		stdout, stderr, err := run(t, newServer(t, tt.status, tt.body), false)
		if err != nil {
			t.Fatalf("status %d: Run() error = %v", tt.status, err)
		}
		if stdout != "" {
			t.Errorf("status %d: stdout = %q, want empty", tt.status, stdout)
		}

		want := fmt.Sprintf("Failed to send request. Status: %d %s\nError: %s\n", tt.status, http.StatusText(tt.status), tt.body)
		if stderr != want {
			t.Errorf("status %d: stderr mismatch\n got: %q\nwant: %q", tt.status, stderr, want)
		}
	}
}

func TestRunAPIErrorStrict(t *testing.T) {
	_, stderr, err := run(t, newServer(t, http.StatusServiceUnavailable, "down"), true)
	if !errors.Is(err, ErrAPIFailure) {
		t.Fatalf("Run() error = %v, want ErrAPIFailure", err)
	}
	if !strings.Contains(stderr, "Error: down") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunMalformedBody(t *testing.T) {
	stdout, _, err := run(t, newServer(t, http.StatusOK, `not json`), false)

	var decErr *gemini.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("Run() error = %v, want *gemini.DecodeError", err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
}

type failingGenerator struct{ err error }

func (f failingGenerator) GenerateContent(context.Context, string, gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	return nil, f.err
}

func TestRunTransportError(t *testing.T) {
	want := errors.New("dial tcp: connection refused")
	_, stderr, err := run(t, failingGenerator{err: want}, false)
	if !errors.Is(err, want) {
		t.Fatalf("Run() error = %v, want %v", err, want)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want empty", stderr)
	}
}

type recordingGenerator struct {
	model string
	req   gemini.GenerateContentRequest
}

func (r *recordingGenerator) GenerateContent(_ context.Context, model string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	r.model = model
	r.req = req
	return &gemini.GenerateContentResponse{}, nil
}

func TestRunInjectsPromptAndGeneration(t *testing.T) {
	gen := gemini.GenerationConfig{Temperature: 0.2, TopK: 5, TopP: 0.5, MaxOutputTokens: 64, ResponseMimeType: "text/plain"}
	rec := &recordingGenerator{}

	err := Run(context.Background(), Options{
		Client:     rec,
		Model:      "custom-model",
		Prompt:     "custom prompt",
		Generation: gen,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rec.model != "custom-model" {
		t.Errorf("model = %q", rec.model)
	}
	if diff := cmp.Diff(gemini.NewRequest("custom prompt", gen), rec.req); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestRunNilClient(t *testing.T) {
	if err := Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for nil client")
	}
}
