package subnet

import (
	"errors"
	"fmt"
)

// InvalidSubnetError is returned when a subnet string cannot be parsed.
type InvalidSubnetError struct {
	Input string
	Err   error
}

func (e *InvalidSubnetError) Error() string {
	return fmt.Sprintf("invalid subnet %q: %v", e.Input, e.Err)
}

func (e *InvalidSubnetError) Unwrap() error {
	return e.Err
}

// TooLargeError is returned by CheckLimit when a sweep would visit more
// than Limit hosts.
type TooLargeError struct {
	Subnet string
	Hosts  uint64
	Limit  uint64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("subnet %s has %d hosts, more than the limit of %d", e.Subnet, e.Hosts, e.Limit)
}

// IsInvalidSubnet reports whether err is, or wraps, an InvalidSubnetError.
func IsInvalidSubnet(err error) bool {
	var target *InvalidSubnetError
	return errors.As(err, &target)
}
