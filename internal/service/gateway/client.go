package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
)

// Client calls a remote gateway over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient returns a client posting to url.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{url: url, httpClient: &http.Client{Timeout: timeout}}
}

func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", apperr.Generation(0, "encode gateway request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", apperr.Generation(0, "build gateway request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apperr.Generation(0, "gateway unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperr.Generation(resp.StatusCode, "read gateway response", err)
	}

	var decoded Response
	if err := json.Unmarshal(body, &decoded); err != nil {
		log.Printf("[gateway] undecodable response status=%d", resp.StatusCode)
		return "", apperr.Generation(resp.StatusCode, "malformed gateway response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !decoded.Success {
		log.Printf("[gateway] call failed status=%d error=%q", resp.StatusCode, decoded.Error)
		var cause error
		if decoded.Error != "" {
			cause = errors.New(decoded.Error)
		}
		return "", apperr.Generation(resp.StatusCode, "gateway reported failure", cause)
	}

	text := strings.TrimSpace(decoded.Response)
	if text == "" {
		return "", apperr.Generation(resp.StatusCode, "no response generated", nil)
	}
	return text, nil
}
