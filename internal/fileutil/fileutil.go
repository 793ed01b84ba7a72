package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked reports that another process holds the output lock.
var ErrLocked = errors.New("output is locked by another process")

// EnsureParentDir creates the directory that will contain path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// OutputLock is an advisory lock guarding a single output file.
type OutputLock struct {
	path string
	lock *flock.Flock
}

// LockOutput acquires "<path>.lock" without blocking.
func LockOutput(path string) (*OutputLock, error) {
	if err := EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}
	return &OutputLock{path: lockPath, lock: lock}, nil
}

// Path returns the lock file location.
func (l *OutputLock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks the lock file. The file stays on disk: a waiter that
// already opened it must contend on the same inode as later writers.
func (l *OutputLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

// WriteFileAtomic streams write's output into a temporary file next to path
// and renames it into place, so readers never observe a half-written table.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
