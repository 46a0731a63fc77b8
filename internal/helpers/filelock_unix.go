//go:build !windows

package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// FileLock is an exclusive advisory lock held on a file.
type FileLock struct {
	lockFile *os.File
	path     string
}

// AcquireLock takes an exclusive lock on lockPath, retrying up to
// maxRetries times 100ms apart. The lock must be released with Release.
func AcquireLock(lockPath string, maxRetries int) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open lock file: %w", err)
		}
		if err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err == nil {
			return &FileLock{lockFile: f, path: lockPath}, nil
		}
		f.Close()
		lastErr = err
		if i < maxRetries {
			time.Sleep(100 * time.Millisecond)
		}
	}
	return nil, fmt.Errorf("lock %s is held by another process: %w", lockPath, lastErr)
}

// Release drops the lock and removes the lock file.
func (fl *FileLock) Release() error {
	if fl.lockFile == nil {
		return nil
	}
	// Remove while still holding the lock so a waiter never locks a stale inode.
	_ = os.Remove(fl.path)
	unlockErr := syscall.Flock(int(fl.lockFile.Fd()), syscall.LOCK_UN)
	closeErr := fl.lockFile.Close()
	fl.lockFile = nil
	if unlockErr != nil {
		return fmt.Errorf("failed to release lock: %w", unlockErr)
	}
	return closeErr
}
