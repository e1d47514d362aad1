// Package httprequest provides a tool node that calls an HTTP endpoint.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
	"github.com/dukex/updlflow/pkg/template"
)

// Config defines the resolved inputs of an HTTP request node.
type Config struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body,omitempty"`
	Timeout int               `json:"timeout"`
	Retries RetryConfig       `json:"retries"`
}

// RetryConfig defines retry behavior for HTTP requests.
type RetryConfig struct {
	Attempts int `json:"attempts"`
	Delay    int `json:"delay"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// HTTPRequestNode performs HTTP requests. Its output is the response.
type HTTPRequestNode struct {
	client *http.Client
}

func NewHTTPRequestNode(client *http.Client) *HTTPRequestNode {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPRequestNode{client: client}
}

func parseConfig(inputs map[string]any) (Config, error) {
	cfg := Config{
		Method:  http.MethodGet,
		Headers: make(map[string]string),
		Timeout: 30,
		Retries: RetryConfig{Attempts: 1},
	}

	if err := models.DecodeInputs(inputs, &cfg); err != nil {
		return cfg, err
	}

	if cfg.URL == "" {
		return cfg, errors.New("missing required field 'url'")
	}

	cfg.Method = strings.ToUpper(cfg.Method)
	if cfg.Retries.Attempts < 1 {
		cfg.Retries.Attempts = 1
	}

	return cfg, nil
}

// Init performs the request and returns status, headers, body and decoded json.
func (n *HTTPRequestNode) Init(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	cfg, err := parseConfig(data.Inputs)
	if err != nil {
		return nil, err
	}

	tmplData := template.NodeContext(input, data, opts)

	body := cfg.Body
	if body != "" {
		body, err = template.RenderString(body, tmplData)
		if err != nil {
			return nil, fmt.Errorf("failed to render body template: %w", err)
		}
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.Retries.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(cfg.Retries.Delay) * time.Millisecond):
			}
		}

		result, err := n.performRequest(ctx, cfg, body)
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Client errors are not retried.
		httpErr := &HTTPError{}
		if errors.As(err, &httpErr) && httpErr.StatusCode < 500 {
			break
		}
	}

	opts.Log().WarnContext(ctx, "HTTP request failed", "node_id", data.ID, "url", cfg.URL, "error", lastErr)

	return nil, fmt.Errorf("HTTP request failed after %d attempts: %w", cfg.Retries.Attempts, lastErr)
}

// Run returns the response body when the node ends a flow.
func (n *HTTPRequestNode) Run(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	out, err := n.Init(ctx, data, input, opts)
	if err != nil {
		return nil, err
	}

	return out.(map[string]any)["body"], nil
}

func (n *HTTPRequestNode) performRequest(ctx context.Context, cfg Config, body string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeout)*time.Second)
	defer cancel()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.URL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	headers := make(map[string]any, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	result := map[string]any{
		"status_code": float64(resp.StatusCode),
		"headers":     headers,
		"body":        string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		result["json"] = jsonBody
	}

	return result, nil
}
