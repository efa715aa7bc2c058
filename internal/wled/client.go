package wled

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultPort is the HTTP port WLED listens on
	DefaultPort = 80

	// DefaultTimeout is the per-request timeout. Hosts that are not devices
	// usually time out, so this bounds the cost of every empty address.
	DefaultTimeout = 5 * time.Second

	// MaxBodySize limits how much of a single response is read. WLED runs on
	// microcontrollers with a few megabytes of flash.
	MaxBodySize = 16 << 20
)

// Client talks to one WLED device over its unauthenticated HTTP API.
type Client struct {
	// BaseURL is the base URL for the device (e.g., "http://192.168.1.40:80")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// UserAgent is sent with every request when set
	UserAgent string

	// MaxBodySize overrides the response size limit when positive
	MaxBodySize int64
}

// NewClient creates a client for the host and port. IPv6 literals are
// bracketed.
func NewClient(host string, port int) *Client {
	return NewClientWithURL("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
}

// NewClientWithURL creates a client with a full base URL
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SetTimeout sets the per-request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// Timeout returns the per-request timeout
func (c *Client) Timeout() time.Duration {
	if c.HTTPClient.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.HTTPClient.Timeout
}

// Config fetches /cfg.json.
func (c *Client) Config(ctx context.Context) Outcome {
	return c.getJSON(ctx, ConfigPath)
}

// Presets fetches /presets.json.
func (c *Client) Presets(ctx context.Context) Outcome {
	return c.getJSON(ctx, PresetsPath)
}

// ListFiles fetches the file listing. On Success the entries are decoded;
// a body that is JSON but not a list of entries is an InvalidResponse.
func (c *Client) ListFiles(ctx context.Context) ([]FileEntry, Outcome) {
	out := c.getJSON(ctx, FileListPath)
	if !out.OK() {
		return nil, out
	}

	entries, err := ParseFileList(out.Body)
	if err != nil {
		return nil, Outcome{Status: InvalidResponse, Body: out.Body, Err: NewParseError(FileListPath, err)}
	}
	return entries, out
}

// File fetches the raw bytes of a file by its path relative to the root.
func (c *Client) File(ctx context.Context, name string) ([]byte, error) {
	path := (&url.URL{Path: "/" + strings.TrimLeft(name, "/")}).EscapedPath()
	return c.get(ctx, path)
}

// PostForm submits form-encoded data to path. Any 2xx status is success.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return NewNetworkError(path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setHeaders(req.Header)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError(path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodySize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NewHTTPError(path, resp.StatusCode)
	}
	return nil
}

// StateSnapshot connects to the device WebSocket and returns the first
// text message, which WLED sends unprompted on connect ({"state":..,"info":..}).
func (c *Client) StateSnapshot(ctx context.Context) Outcome {
	timeout := c.Timeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	header := http.Header{}
	c.setHeaders(header)
	conn, resp, err := dialer.DialContext(ctx, websocketURL(c.BaseURL)+WebSocketPath, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return Outcome{Status: Unreachable, Err: NewHTTPError(WebSocketPath, resp.StatusCode)}
		}
		return Outcome{Status: Unreachable, Err: NewNetworkError(WebSocketPath, err)}
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(c.bodyLimit())
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return Outcome{Status: Unreachable, Err: NewNetworkError(WebSocketPath, err)}
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if !json.Valid(data) {
			return Outcome{Status: InvalidResponse, Body: data, Err: NewParseError(WebSocketPath, fmt.Errorf("invalid JSON in first message"))}
		}
		return Outcome{Status: Success, Body: data}
	}
}

// getJSON performs a GET and classifies the body.
func (c *Client) getJSON(ctx context.Context, path string) Outcome {
	body, err := c.get(ctx, path)
	if err != nil {
		if IsTooLargeError(err) {
			return Outcome{Status: InvalidResponse, Err: err}
		}
		return Outcome{Status: Unreachable, Err: err}
	}

	if !json.Valid(body) {
		return Outcome{Status: InvalidResponse, Body: body, Err: NewParseError(path, fmt.Errorf("%d bytes", len(body)))}
	}
	return Outcome{Status: Success, Body: body}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, NewNetworkError(path, err)
	}
	c.setHeaders(req.Header)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError(path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewHTTPError(path, resp.StatusCode)
	}

	limit := c.bodyLimit()
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, NewNetworkError(path, err)
	}
	if int64(len(body)) > limit {
		return nil, NewTooLargeError(path, limit)
	}
	return body, nil
}

func (c *Client) bodyLimit() int64 {
	if c.MaxBodySize > 0 {
		return c.MaxBodySize
	}
	return MaxBodySize
}

func (c *Client) setHeaders(h http.Header) {
	if c.UserAgent != "" {
		h.Set("User-Agent", c.UserAgent)
	}
}

func websocketURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}
