// Package filelock serializes access to a file within a process and across
// processes sharing the same file system.
package filelock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// retryDelay is how often a blocked lock attempt polls for the lock.
const retryDelay = 20 * time.Millisecond

// Lock pairs an in-process mutex with an advisory lock on a sidecar file.
type Lock struct {
	mu   sync.Mutex
	file *flock.Flock
}

// New creates a lock guarded by the file at path. The file is created on
// first use.
func New(path string) *Lock {
	return &Lock{file: flock.New(path)}
}

// Path returns the path of the lock file.
func (l *Lock) Path() string {
	return l.file.Path()
}

// Exclusive runs fn while holding the lock exclusively.
func (l *Lock) Exclusive(ctx context.Context, fn func() error) error {
	return l.run(ctx, false, fn)
}

// Shared runs fn while holding the lock shared with other readers in other
// processes. Readers within this process are still serialized.
func (l *Lock) Shared(ctx context.Context, fn func() error) error {
	return l.run(ctx, true, fn)
}

func (l *Lock) run(ctx context.Context, shared bool, fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = l.file.TryRLockContext(ctx, retryDelay)
	} else {
		locked, err = l.file.TryLockContext(ctx, retryDelay)
	}
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", l.file.Path(), err)
	}
	if !locked {
		return fmt.Errorf("acquiring lock %s: not acquired", l.file.Path())
	}

	fnErr := fn()
	if err := l.file.Unlock(); err != nil && fnErr == nil {
		return fmt.Errorf("releasing lock %s: %w", l.file.Path(), err)
	}
	return fnErr
}
