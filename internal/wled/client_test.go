package wled

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Whitespace and key order are deliberate: backups must keep them.
const mockConfig = `{"rev":[1,0],"id":{"mdns":"wled-porch","name":"Porch","inv":"Light"},  "nw":{"ins":[{"ssid":"home"}]}}`

func newDevice(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.RequestURI()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{host: "192.168.1.40", port: 80, want: "http://192.168.1.40:80"},
		{host: "fd00::12", port: 8080, want: "http://[fd00::12]:8080"},
	}
	for _, tt := range tests {
		client := NewClient(tt.host, tt.port)
		if client.BaseURL != tt.want {
			t.Errorf("NewClient(%q, %d).BaseURL = %s, want %s", tt.host, tt.port, client.BaseURL, tt.want)
		}
		if client.HTTPClient == nil || client.HTTPClient.Timeout != DefaultTimeout {
			t.Errorf("HTTPClient timeout not defaulted")
		}
	}
}

func TestSetTimeout(t *testing.T) {
	client := NewClient("192.168.1.40", 80)
	client.SetTimeout(2 * time.Second)

	if client.Timeout() != 2*time.Second {
		t.Errorf("Timeout() = %v, want 2s", client.Timeout())
	}
}

func TestConfig_ByteExact(t *testing.T) {
	server := newDevice(t, map[string]string{ConfigPath: mockConfig})

	out := NewClientWithURL(server.URL).Config(context.Background())
	if out.Status != Success {
		t.Fatalf("Status = %v, want success (err %v)", out.Status, out.Err)
	}
	if !bytes.Equal(out.Body, []byte(mockConfig)) {
		t.Errorf("Body = %q, want %q", out.Body, mockConfig)
	}
}

func TestConfig_InvalidJSON(t *testing.T) {
	server := newDevice(t, map[string]string{ConfigPath: `<html>router login</html>`})

	out := NewClientWithURL(server.URL).Config(context.Background())
	if out.Status != InvalidResponse {
		t.Fatalf("Status = %v, want invalid-response", out.Status)
	}
	if !IsParseError(out.Err) {
		t.Errorf("Err = %v, want parse error", out.Err)
	}
}

func TestConfig_HTTPErrorIsUnreachable(t *testing.T) {
	server := newDevice(t, map[string]string{})

	out := NewClientWithURL(server.URL).Config(context.Background())
	if out.Status != Unreachable {
		t.Fatalf("Status = %v, want unreachable", out.Status)
	}
	if !IsHTTPError(out.Err) {
		t.Errorf("Err = %v, want HTTP error", out.Err)
	}
	if got := ShortErrorMessage(out.Err); got != "HTTP 404" {
		t.Errorf("ShortErrorMessage() = %q, want HTTP 404", got)
	}
}

func TestConfig_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClientWithURL(url)
	client.SetTimeout(time.Second)
	out := client.Config(context.Background())

	if out.Status != Unreachable {
		t.Fatalf("Status = %v, want unreachable", out.Status)
	}
	if !IsNetworkError(out.Err) {
		t.Errorf("Err = %T %v, want network error", out.Err, out.Err)
	}
}

func TestConfig_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClientWithURL(server.URL)
	client.SetTimeout(50 * time.Millisecond)
	out := client.Config(context.Background())

	if out.Status != Unreachable {
		t.Fatalf("Status = %v, want unreachable", out.Status)
	}
	if got := ShortErrorMessage(out.Err); got != "not responding (timeout)" {
		t.Errorf("ShortErrorMessage() = %q", got)
	}
}

func TestListFiles(t *testing.T) {
	server := newDevice(t, map[string]string{
		FileListPath: `[{"name":"/a.json","type":"file","size":12},{"name":"/sub","type":"dir","size":0}]`,
	})

	entries, out := NewClientWithURL(server.URL).ListFiles(context.Background())
	if !out.OK() {
		t.Fatalf("ListFiles() status = %v, err %v", out.Status, out.Err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if !entries[0].IsFile() || entries[0].RelativePath() != "a.json" || entries[0].Size != 12 {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].IsFile() {
		t.Errorf("entries[1] should not be a file: %+v", entries[1])
	}
}

func TestListFiles_NotAList(t *testing.T) {
	server := newDevice(t, map[string]string{FileListPath: `{"error":"nope"}`})

	entries, out := NewClientWithURL(server.URL).ListFiles(context.Background())
	if out.Status != InvalidResponse {
		t.Fatalf("Status = %v, want invalid-response", out.Status)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
}

func TestFile(t *testing.T) {
	server := newDevice(t, map[string]string{
		"/presets.json":    `{"0":{}}`,
		"/dir/my%20ledmap": "raw\x00bytes",
	})
	client := NewClientWithURL(server.URL)

	data, err := client.File(context.Background(), "/presets.json")
	if err != nil || string(data) != `{"0":{}}` {
		t.Errorf("File(/presets.json) = %q, %v", data, err)
	}

	data, err = client.File(context.Background(), "dir/my ledmap")
	if err != nil || string(data) != "raw\x00bytes" {
		t.Errorf("File(dir/my ledmap) = %q, %v", data, err)
	}

	if _, err := client.File(context.Background(), "missing"); !IsHTTPError(err) {
		t.Errorf("File(missing) error = %v, want HTTP error", err)
	}
}

func TestFile_OverLimitIsAnError(t *testing.T) {
	server := newDevice(t, map[string]string{
		"/exact.bin": "12345678",
		"/big.bin":   "123456789",
		"/cfg.json":  `{"id":{"name":"Porch"}}`,
	})
	client := NewClientWithURL(server.URL)
	client.MaxBodySize = 8

	if data, err := client.File(context.Background(), "exact.bin"); err != nil || string(data) != "12345678" {
		t.Errorf("File(exact.bin) = %q, %v", data, err)
	}

	data, err := client.File(context.Background(), "big.bin")
	if !IsTooLargeError(err) {
		t.Errorf("File(big.bin) error = %v, want too large", err)
	}
	if data != nil {
		t.Errorf("File(big.bin) returned %d truncated bytes", len(data))
	}

	out := client.Config(context.Background())
	if out.Status != InvalidResponse || !IsTooLargeError(out.Err) {
		t.Errorf("Config() = %v, %v, want InvalidResponse too large", out.Status, out.Err)
	}
}

func TestPostForm(t *testing.T) {
	var gotBody, gotType, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		gotBody = r.PostForm.Encode()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	form := map[string][]string{"LT": {"52.37"}, "LN": {"4.90"}}
	if err := NewClientWithURL(server.URL).PostForm(context.Background(), TimeSettingsPath, form); err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %s", gotType)
	}
	if gotBody != "LN=4.90&LT=52.37" {
		t.Errorf("body = %s", gotBody)
	}
}

func TestPostForm_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewClientWithURL(server.URL).PostForm(context.Background(), TimeSettingsPath, nil)
	if !IsHTTPError(err) {
		t.Fatalf("PostForm() error = %v, want HTTP error", err)
	}
	if !strings.Contains(err.Error(), TimeSettingsPath) {
		t.Errorf("error %q should mention the path", err)
	}
}

func TestStateSnapshot(t *testing.T) {
	const snapshot = `{"state":{"on":true,"bri":128},"info":{"ver":"0.14.0"}}`
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != WebSocketPath {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x01})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(snapshot))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	client.SetTimeout(2 * time.Second)
	out := client.StateSnapshot(context.Background())

	if out.Status != Success {
		t.Fatalf("Status = %v, err %v", out.Status, out.Err)
	}
	if string(out.Body) != snapshot {
		t.Errorf("Body = %s, want %s", out.Body, snapshot)
	}
}

func TestStateSnapshot_NoWebSocket(t *testing.T) {
	server := newDevice(t, map[string]string{})

	client := NewClientWithURL(server.URL)
	client.SetTimeout(time.Second)
	out := client.StateSnapshot(context.Background())

	if out.Status != Unreachable {
		t.Fatalf("Status = %v, want unreachable", out.Status)
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := map[string]string{
		"http://10.0.0.2:80":  "ws://10.0.0.2:80",
		"https://example.org": "wss://example.org",
		"ws://already":        "ws://already",
	}
	for in, want := range tests {
		if got := websocketURL(in); got != want {
			t.Errorf("websocketURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	client.UserAgent = "wled-backup/v1.0.0"
	if out := client.Config(context.Background()); !out.OK() {
		t.Fatalf("Config() = %v", out.Err)
	}
	if got != "wled-backup/v1.0.0" {
		t.Errorf("User-Agent = %q", got)
	}
}
