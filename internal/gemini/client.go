package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

// APIError is returned for any non-2xx reply. Body is the raw response text.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API %s: %s", e.Status, strings.TrimSpace(e.Body))
}

// DecodeError means a 2xx body could not be parsed as a generateContent response.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.Trim(strings.TrimSpace(opts.APIVersion), "/")
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// Endpoint returns the generateContent URL for model, key included.
func (c *Client) Endpoint(model string) string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	return fmt.Sprintf("%s/%s/models/%s:generateContent?%s", c.baseURL, c.apiVersion, url.PathEscape(model), q.Encode())
}

// RedactedEndpoint is Endpoint with the key replaced by a placeholder.
func (c *Client) RedactedEndpoint(model string) string {
	return fmt.Sprintf("%s/%s/models/%s:generateContent?key=***", c.baseURL, c.apiVersion, url.PathEscape(model))
}

// GenerateContent sends exactly one request. There is no retry.
func (c *Client) GenerateContent(ctx context.Context, model string, payload GenerateContentRequest) (*GenerateContentResponse, error) {
	if c.httpClient == nil {
		return nil, errors.New("http client is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(model), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	c.logger.Debug("gemini request", "model", model, "bytes", len(body))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request: %w", scrubKey(err, c.apiKey))
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("gemini response",
		"model", model,
		"status", httpResp.StatusCode,
		"dur_ms", time.Since(start).Milliseconds(),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		status := httpResp.Status
		if status == "" {
			status = strconv.Itoa(httpResp.StatusCode) + " " + http.StatusText(httpResp.StatusCode)
		}
		return nil, &APIError{
			StatusCode: httpResp.StatusCode,
			Status:     status,
			Body:       string(rawBody),
		}
	}

	var decoded GenerateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if reasons := decoded.finishReasons(); len(reasons) > 0 {
		c.logger.Debug("gemini finish", "reasons", reasons)
	}
	if reason := decoded.blockReason(); reason != "" {
		c.logger.Info("gemini prompt blocked", "reason", reason)
	}

	return &decoded, nil
}

// scrubKey strips the API key from transport errors, which embed the request URL.
func scrubKey(err error, key string) error {
	if key == "" {
		return err
	}
	msg := err.Error()
	escaped := url.QueryEscape(key)
	if !strings.Contains(msg, key) && !strings.Contains(msg, escaped) {
		return err
	}
	msg = strings.ReplaceAll(msg, escaped, "***")
	msg = strings.ReplaceAll(msg, key, "***")
	return &scrubbedError{msg: msg, err: err}
}

type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }

func (e *scrubbedError) Unwrap() error { return e.err }
