// Package client is the HTTP client for the AI completion backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"

	"texpilot/logger"
	"texpilot/types"
)

// Completer is the interface the engine consumes. The backend is a black
// box that returns either raw completion text or a pre-parsed payload.
type Completer interface {
	DoCompletion(ctx context.Context, req *types.CompletionRequest) (*types.CompletionResponse, error)
}

// Client talks to the completion backend over HTTP.
type Client struct {
	HTTPClient *http.Client
	URL        string
	AuthToken  string
}

// NewClient creates a backend client.
// apiKey is the resolved API key for authenticated requests
// timeoutMs is the HTTP client timeout in milliseconds (0 = no timeout)
func NewClient(url, apiKey string, timeoutMs int) *Client {
	timeout := time.Duration(0)
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		URL:       url,
		AuthToken: apiKey,
	}
}

// DoCompletion sends a completion request and returns the backend's
// response. The body is brotli-compressed JSON.
func (c *Client) DoCompletion(ctx context.Context, req *types.CompletionRequest) (*types.CompletionResponse, error) {
	defer logger.Trace("client.DoCompletion")()

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Compress with brotli (quality 1 for speed)
	var compressedBuf bytes.Buffer
	brotliWriter := brotli.NewWriterLevel(&compressedBuf, 1)
	if _, err := brotliWriter.Write(jsonData); err != nil {
		return nil, fmt.Errorf("failed to compress request: %w", err)
	}
	if err := brotliWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close brotli writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.URL, &compressedBuf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Content-Encoding", "br")
	if c.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := types.CompletionResponse{
		SelectionFrom: types.NoPosition,
		SelectionTo:   types.NoPosition,
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		// Backends that do not pre-parse return plain text.
		apiResp = types.CompletionResponse{
			Text:          string(body),
			SelectionFrom: types.NoPosition,
			SelectionTo:   types.NoPosition,
		}
	}
	if apiResp.Text == "" && apiResp.Suggestion == "" {
		apiResp.Text = string(body)
	}

	return &apiResp, nil
}
