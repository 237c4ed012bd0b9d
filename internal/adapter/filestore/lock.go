package filestore

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFile is the name of the lock held in the staging directory.
const LockFile = ".harvest-lock"

var ErrLocked = errors.New("another harvest run holds the staging directory")

// Lock takes an exclusive lock on the staging directory so two runs never
// share staged files. The returned function releases it.
func (s *Store) Lock() (func() error, error) {
	lock := flock.New(filepath.Join(s.stagingDir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock.Unlock, nil
}
