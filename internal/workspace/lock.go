package workspace

import (
	"errors"
	"fmt"
	"os"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
)

// lockSuffix names the sentinel file used as an advisory lock on the
// config file during mutation. It is not a flock(2) wrapper, so it
// only protects cooperating air processes, but it stays portable.
const lockSuffix = ".lock"

// ErrLocked indicates another air process currently holds the
// workspace's advisory lock.
var ErrLocked = errors.New("workspace is locked by another process")

// acquireLock exclusively creates configPath+lockSuffix, returning a
// release function the caller must defer. Held lock files are never
// cleaned up by a crashed process; an operator can remove the
// sentinel by hand if a prior run died uncleanly.
func acquireLock(configPath string) (release func(), err error) {
	lockPath := configPath + lockSuffix

	fd, openErr := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) //nolint:gosec // sentinel file, no sensitive content.
	if openErr != nil {
		if os.IsExist(openErr) {
			return nil, fmt.Errorf("%w: %w", airerr.ErrConfig, ErrLocked)
		}

		return nil, fmt.Errorf("%w: acquire lock: %w", airerr.ErrConfig, openErr)
	}

	fd.Close()

	return func() { os.Remove(lockPath) }, nil
}
