package repo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLocked is returned when another run holds the output directory lock.
var ErrLocked = errors.New("output directory is locked by another run")

// GitError represents a git command that could not run or exited non-zero.
type GitError struct {
	// Args are the git arguments, without the -C prefix
	Args []string
	// ExitCode is the git exit status, -1 when git did not start
	ExitCode int
	// Stderr is what git printed on stderr
	Stderr string
	// Underlying error if any
	Err error
}

func (e *GitError) Error() string {
	cmd := "git " + strings.Join(e.Args, " ")
	stderr := strings.TrimSpace(e.Stderr)

	switch {
	case e.ExitCode < 0:
		return fmt.Sprintf("%s failed to run: %v", cmd, e.Err)
	case stderr != "":
		return fmt.Sprintf("%s exited with code %d: %s", cmd, e.ExitCode, stderr)
	default:
		return fmt.Sprintf("%s exited with code %d", cmd, e.ExitCode)
	}
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// IsGitError checks if an error is a GitError
func IsGitError(err error) bool {
	var gitErr *GitError
	return errors.As(err, &gitErr)
}
