package wled

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
)

// timeoutError implements net.Error with Timeout() = true
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func dialErr(err error) error {
	return &url.Error{Op: "Get", URL: "http://10.0.0.2/cfg.json", Err: &net.OpError{Op: "dial", Net: "tcp", Err: err}}
}

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"timeout", dialErr(timeoutError{}), KindTimeout},
		{"context deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), KindTimeout},
		{"connection refused", dialErr(syscall.ECONNREFUSED), KindRefused},
		{"host unreachable", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH}, KindHostUnreachable},
		{"network unreachable", dialErr(syscall.ENETUNREACH), KindNetUnreachable},
		{"dns", &net.DNSError{Err: "no such host", Name: "wled.invalid", IsNotFound: true}, KindDNS},
		{"generic", errors.New("connection reset by peer"), KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devErr := ClassifyNetworkError(tt.err)
			if devErr == nil {
				t.Fatal("ClassifyNetworkError() returned nil")
			}
			if devErr.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", devErr.Kind, tt.want)
			}
			if !IsNetworkError(devErr) {
				t.Error("IsNetworkError() = false")
			}
			if !errors.Is(devErr, tt.err) {
				t.Error("cause not reachable through Unwrap")
			}
		})
	}
}

func TestClassifyNetworkError_Nil(t *testing.T) {
	if ClassifyNetworkError(nil) != nil {
		t.Error("ClassifyNetworkError(nil) should be nil")
	}
}

func TestDeviceError_Error(t *testing.T) {
	err := NewNetworkError("/cfg.json", syscall.ECONNREFUSED)
	if got, want := err.Error(), "/cfg.json: network error: "+syscall.ECONNREFUSED.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	refused := NewNetworkError("/cfg.json", dialErr(syscall.ECONNREFUSED))
	if refused.Kind != KindRefused {
		t.Errorf("Kind = %v, want %v", refused.Kind, KindRefused)
	}

	if got := NewHTTPError("/presets.json", 503).Error(); got != "/presets.json: HTTP 503" {
		t.Errorf("Error() = %q", got)
	}
	if got := NewParseError("/presets.json", errors.New("unexpected EOF")).Error(); got != "/presets.json: invalid JSON: unexpected EOF" {
		t.Errorf("Error() = %q", got)
	}
}

func TestPredicates_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("fetch presets: %w", NewParseError("/presets.json", errors.New("bad")))
	if !IsParseError(wrapped) {
		t.Error("IsParseError() should see through wrapping")
	}
	if IsNetworkError(wrapped) || IsHTTPError(wrapped) {
		t.Error("parse error misclassified")
	}
	if IsParseError(errors.New("plain")) {
		t.Error("plain error classified as parse error")
	}
}

func TestShortErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewHTTPError("/x", 500), "HTTP 500"},
		{NewParseError("/x", nil), "invalid JSON"},
		{&DeviceError{Kind: KindRefused}, "connection refused"},
		{&DeviceError{Kind: KindHostUnreachable}, "host unreachable"},
		{&DeviceError{Kind: KindTimeout}, "not responding (timeout)"},
		{errors.New("disk full"), "disk full"},
	}
	for _, tt := range tests {
		if got := ShortErrorMessage(tt.err); got != tt.want {
			t.Errorf("ShortErrorMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestKind(t *testing.T) {
	if Kind(99).String() != "Kind(99)" {
		t.Errorf("unknown kind string = %q", Kind(99).String())
	}
	if KindHTTP.Transport() || KindParse.Transport() || !KindDNS.Transport() {
		t.Error("Transport() misclassifies kinds")
	}
}
