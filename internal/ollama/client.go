// internal/ollama/client.go
// Package: ollama
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/gollamabench/internal/logging"
)

// ErrModelNotFound is returned by Show when the backend has no local copy of
// the requested model.
var ErrModelNotFound = errors.New("model not found")

// ModelUnavailableError reports that a model could not be made present on the
// backend. It aborts the benchmark of that model only.
type ModelUnavailableError struct {
	Model string
	Err   error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %s unavailable: %v", e.Model, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the non-streamed /api/chat reply. Durations are nanoseconds
// as reported by the server.
type ChatResponse struct {
	Model           string  `json:"model"`
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	DoneReason      string  `json:"done_reason,omitempty"`
	TotalDuration   int64   `json:"total_duration,omitempty"`
	LoadDuration    int64   `json:"load_duration,omitempty"`
	PromptEvalCount int     `json:"prompt_eval_count,omitempty"`
	EvalCount       int     `json:"eval_count,omitempty"`
	EvalDuration    int64   `json:"eval_duration,omitempty"`
	Error           string  `json:"error,omitempty"`
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream"`
	KeepAlive *int      `json:"keep_alive,omitempty"`
}

// ModelInfo is one entry of /api/tags or /api/ps.
type ModelInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
}

// Client talks to a single Ollama host.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client with a tuned keep-alive transport. timeout bounds
// each request; zero means no limit.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: newHTTPClient(timeout),
	}
}

// newHTTPClient returns a tuned HTTP client with keep-alives so repeated
// samples reuse one connection.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach Ollama at %s: %w", c.BaseURL, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("ollama error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
}

// Chat sends one non-streamed chat request and returns the full reply.
func (c *Client) Chat(ctx context.Context, model string, messages []Message) (ChatResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/chat", chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return ChatResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ChatResponse{}, statusError(resp)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ChatResponse{}, fmt.Errorf("decode chat response: %w", err)
	}
	if out.Error != "" {
		return ChatResponse{}, fmt.Errorf("ollama error: %s", out.Error)
	}
	return out, nil
}

// ChatText sends a single user message and returns the reply content.
func (c *Client) ChatText(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.Chat(ctx, model, []Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// Show reports whether model exists locally. It returns ErrModelNotFound on 404.
func (c *Client) Show(ctx context.Context, model string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/show", map[string]string{"model": model})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case http.StatusNotFound:
		return ErrModelNotFound
	default:
		return statusError(resp)
	}
}

// Pull downloads model and blocks until the server reports completion.
func (c *Client) Pull(ctx context.Context, model string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/pull", map[string]any{"model": model, "stream": false})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	var status struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode pull response: %w", err)
	}
	if status.Error != "" {
		return errors.New(status.Error)
	}
	return nil
}

// EnsurePresent checks for a local copy of model and pulls it on a miss. Any
// failure is returned as a *ModelUnavailableError.
func (c *Client) EnsurePresent(ctx context.Context, model string) error {
	err := c.Show(ctx, model)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrModelNotFound) {
		return &ModelUnavailableError{Model: model, Err: err}
	}

	logging.Logger.Info("pulling model", "model", model, "host", c.BaseURL)
	if err := c.Pull(ctx, model); err != nil {
		return &ModelUnavailableError{Model: model, Err: fmt.Errorf("pull failed: %w", err)}
	}
	return nil
}

// ListModels returns the models installed on the host.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	return c.listModels(ctx, "/api/tags")
}

// RunningModels returns the models currently loaded into memory.
func (c *Client) RunningModels(ctx context.Context) ([]ModelInfo, error) {
	return c.listModels(ctx, "/api/ps")
}

func (c *Client) listModels(ctx context.Context, path string) ([]ModelInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var out struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("error parsing models from %s: %w", c.BaseURL, err)
	}
	return out.Models, nil
}

// Unload asks the server to evict model from memory.
func (c *Client) Unload(ctx context.Context, model string) error {
	zero := 0
	resp, err := c.do(ctx, http.MethodPost, "/api/chat", chatRequest{Model: model, KeepAlive: &zero})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
