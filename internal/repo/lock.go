package repo

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/juju/clock"
	"github.com/juju/mutex/v2"
)

// lockDelay is how often a waiting run retries the lock.
const lockDelay = 250 * time.Millisecond

// Releaser releases a held lock.
type Releaser interface {
	Release()
}

// LockName returns the machine-wide mutex name for an output directory.
// Names are derived from the absolute path so that relative and absolute
// spellings of one directory share a lock.
func LockName(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return "wled-backup-" + hex.EncodeToString(sum[:4]), nil
}

// Lock acquires the advisory lock for the output directory, waiting at most
// timeout. It returns ErrLocked when another run keeps holding it.
func Lock(dir string, timeout time.Duration) (Releaser, error) {
	name, err := LockName(dir)
	if err != nil {
		return nil, err
	}

	releaser, err := mutex.Acquire(mutex.Spec{
		Name:    name,
		Clock:   clock.WallClock,
		Delay:   lockDelay,
		Timeout: timeout,
	})
	if err != nil {
		if errors.Is(err, mutex.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", dir, err)
	}
	return releaser, nil
}
