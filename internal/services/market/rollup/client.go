package rollup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
)

// Status is the verdict sent with /finish.
type Status string

const (
	StatusAccept Status = "accept"
	StatusReject Status = "reject"
)

// ErrUnexpectedStatus indicates an HTTP status the node API does not define.
var ErrUnexpectedStatus = errors.New("unexpected rollup http status")

// Request is one request handed out by /finish.
type Request struct {
	Type RequestType     `json:"request_type" validate:"required,oneof=advance_state inspect_state"`
	Data json.RawMessage `json:"data" validate:"required"`
}

// Client calls the rollup node HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the node at baseURL.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("rollup server url is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

// Finish reports status for the previous request and waits for the next one.
// It returns false when the node has no pending request.
func (c *Client) Finish(ctx context.Context, status Status) (Request, bool, error) {
	resp, err := c.post(ctx, "/finish", map[string]string{"status": string(status)})
	if err != nil {
		return Request{}, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Request{}, false, nil
	case http.StatusOK:
		var req Request
		if err := json.NewDecoder(resp.Body).Decode(&req); err != nil {
			return Request{}, false, backoff.Permanent(fmt.Errorf("decode finish response: %w", err))
		}
		if err := validate.Struct(req); err != nil {
			return Request{}, false, backoff.Permanent(fmt.Errorf("validate finish response: %w", err))
		}
		return req, true, nil
	default:
		return Request{}, false, statusError("/finish", resp)
	}
}

// Report posts a diagnostic report.
func (c *Client) Report(ctx context.Context, payload []byte) error {
	return c.postOutput(ctx, "/report", payload)
}

// Notice posts a notice.
func (c *Client) Notice(ctx context.Context, payload []byte) error {
	return c.postOutput(ctx, "/notice", payload)
}

func (c *Client) postOutput(ctx context.Context, path string, payload []byte) error {
	resp, err := c.post(ctx, path, map[string]string{"payload": EncodeHex(payload)})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return statusError(path, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("encode %s body: %w", path, err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build %s request: %w", path, err))
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	return resp, nil
}

// statusError marks 4xx answers permanent; 5xx may be retried.
func statusError(path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("%w: %s returned %d: %s", ErrUnexpectedStatus, path, resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return backoff.Permanent(err)
	}
	return err
}
