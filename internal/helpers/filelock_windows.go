//go:build windows

package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileLock is a best-effort lock based on exclusive file creation.
type FileLock struct {
	lockFile *os.File
	path     string
}

// AcquireLock creates lockPath exclusively, retrying up to maxRetries times
// 100ms apart. The lock must be released with Release.
func AcquireLock(lockPath string, maxRetries int) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
		if err == nil {
			return &FileLock{lockFile: f, path: lockPath}, nil
		}
		lastErr = err
		if i < maxRetries {
			time.Sleep(100 * time.Millisecond)
		}
	}
	return nil, fmt.Errorf("lock %s is held by another process: %w", lockPath, lastErr)
}

// Release closes and removes the lock file.
func (fl *FileLock) Release() error {
	if fl.lockFile == nil {
		return nil
	}
	err := fl.lockFile.Close()
	fl.lockFile = nil
	_ = os.Remove(fl.path)
	return err
}
