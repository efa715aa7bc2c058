package wled

import "fmt"

// Status classifies the result of fetching one JSON resource from a host.
type Status int

const (
	// Unreachable means the request failed: transport error, timeout or a
	// non-2xx status. For the configuration endpoint this means the host is
	// not a device.
	Unreachable Status = iota
	// InvalidResponse means the host answered but the body is not JSON.
	InvalidResponse
	// Success means the body is valid JSON.
	Success
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case Unreachable:
		return "unreachable"
	case InvalidResponse:
		return "invalid-response"
	case Success:
		return "success"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// Outcome is the result of a JSON fetch. Body holds the raw bytes exactly as
// the host sent them; it is set for Success and InvalidResponse.
type Outcome struct {
	Status Status
	Body   []byte
	Err    error
}

// OK reports whether the fetch succeeded.
func (o Outcome) OK() bool {
	return o.Status == Success
}
