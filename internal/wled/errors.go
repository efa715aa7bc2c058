package wled

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// Kind says why a request to a host failed.
type Kind int

const (
	// KindNetwork is a transport failure that fits no narrower kind
	KindNetwork Kind = iota
	KindTimeout
	KindRefused
	KindDNS
	KindHostUnreachable
	KindNetUnreachable

	// KindHTTP is a response with a non-2xx status
	KindHTTP
	// KindParse is a 2xx response whose body is not the expected JSON
	KindParse
	// KindTooLarge is a response body over the client's size limit
	KindTooLarge
)

var kindNames = map[Kind]string{
	KindNetwork:         "network error",
	KindTimeout:         "not responding (timeout)",
	KindRefused:         "connection refused",
	KindDNS:             "cannot resolve hostname",
	KindHostUnreachable: "host unreachable",
	KindNetUnreachable:  "network unreachable",
	KindHTTP:            "unexpected status",
	KindParse:           "invalid JSON",
	KindTooLarge:        "response too large",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Transport reports whether the host could not be talked to at all.
func (k Kind) Transport() bool {
	return k <= KindNetUnreachable
}

// DeviceError is returned by every Client call that fails.
type DeviceError struct {
	Kind Kind

	// Path is the request path, e.g. "/cfg.json"
	Path string

	// StatusCode is set for KindHTTP
	StatusCode int

	Err error
}

func (e *DeviceError) Error() string {
	msg := e.Kind.String()
	if e.Kind == KindHTTP {
		msg = fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// errnoKinds maps dial errors to kinds.
var errnoKinds = []struct {
	errno syscall.Errno
	kind  Kind
}{
	{syscall.ECONNREFUSED, KindRefused},
	{syscall.EHOSTUNREACH, KindHostUnreachable},
	{syscall.ENETUNREACH, KindNetUnreachable},
}

// ClassifyNetworkError wraps a transport error from the HTTP or WebSocket
// client in a DeviceError of the narrowest matching kind.
func ClassifyNetworkError(err error) *DeviceError {
	if err == nil {
		return nil
	}
	return &DeviceError{Kind: transportKind(err), Err: err}
}

func transportKind(err error) Kind {
	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		for _, ek := range errnoKinds {
			if errors.Is(opErr.Err, ek.errno) {
				return ek.kind
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return transportKind(urlErr.Err)
	}
	return KindNetwork
}

// NewNetworkError classifies a transport error for path.
func NewNetworkError(path string, err error) *DeviceError {
	devErr := ClassifyNetworkError(err)
	if devErr == nil {
		devErr = &DeviceError{Kind: KindNetwork}
	}
	devErr.Path = path
	return devErr
}

func NewHTTPError(path string, statusCode int) *DeviceError {
	return &DeviceError{Kind: KindHTTP, Path: path, StatusCode: statusCode}
}

func NewParseError(path string, err error) *DeviceError {
	return &DeviceError{Kind: KindParse, Path: path, Err: err}
}

func NewTooLargeError(path string, limit int64) *DeviceError {
	return &DeviceError{Kind: KindTooLarge, Path: path, Err: fmt.Errorf("more than %d bytes", limit)}
}

func kindOf(err error) (Kind, bool) {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return 0, false
	}
	return devErr.Kind, true
}

// IsNetworkError reports whether err is any transport failure.
func IsNetworkError(err error) bool {
	k, ok := kindOf(err)
	return ok && k.Transport()
}

func IsHTTPError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindHTTP
}

func IsParseError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindParse
}

func IsTooLargeError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTooLarge
}

// ShortErrorMessage returns a few words for a summary line.
func ShortErrorMessage(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return err.Error()
	}
	if devErr.Kind == KindHTTP {
		return fmt.Sprintf("HTTP %d", devErr.StatusCode)
	}
	return devErr.Kind.String()
}
