package db

import (
	"fmt"

	"github.com/gofrs/flock"
)

// WriteLock guards a database against concurrent catalog or matrix writers.
type WriteLock struct {
	lock *flock.Flock
}

// AcquireWriteLock takes the writer lock next to the database file. It fails
// immediately when another writer holds it.
func AcquireWriteLock(dbPath string) (*WriteLock, error) {
	lock := flock.New(dbPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring write lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another moviematch process is writing to %s", dbPath)
	}
	return &WriteLock{lock: lock}, nil
}

// Release frees the lock.
func (l *WriteLock) Release() error {
	return l.lock.Unlock()
}
