package helpers

import (
	"fmt"
	"path/filepath"

	"github.com/jmagar/streamgrab/internal/model"
)

// RunLockName is the lock file kept in the output directory during a run.
const RunLockName = ".streamgrab.lock"

// LockOutputDir claims outputDir for this process. Two runs writing the same
// directory would race on fallback titles like Video0.mp4.
func LockOutputDir(outputDir string) (*FileLock, error) {
	lock, err := AcquireLock(filepath.Join(outputDir, RunLockName), 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is in use by another run: %w", model.ErrOutputDir, outputDir, err)
	}
	return lock, nil
}
