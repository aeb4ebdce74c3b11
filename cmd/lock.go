package cmd

import (
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/pixdl/pixdl/internal/config"
)

var (
	instanceMu   sync.Mutex
	instanceLock *flock.Flock
)

// AcquireLock takes the single-instance lock. It reports false when another
// pixdl TUI already holds it.
func AcquireLock() (bool, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instanceLock != nil {
		return true, nil
	}

	lock := flock.New(filepath.Join(config.GetRuntimeDir(), "pixdl.lock"))
	ok, err := lock.TryLock()
	if err != nil || !ok {
		return false, err
	}
	instanceLock = lock
	return true, nil
}

// ReleaseLock drops the single-instance lock
func ReleaseLock() {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instanceLock != nil {
		_ = instanceLock.Unlock()
		instanceLock = nil
	}
}
