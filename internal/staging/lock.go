package staging

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

var (
	mutexesMu sync.Mutex
	mutexes   = make(map[string]*sync.Mutex)
)

// Lock serializes collection runs writing to the same staging root
type Lock struct {
	file  *fileLock
	mutex *sync.Mutex
}

// Acquire blocks until the staging root is exclusively held. On Linux the
// lock spans processes; elsewhere it only serializes runs inside this process.
func Acquire(root string) (*Lock, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	fl, err := acquireFileLock(abs)
	if err == nil {
		return &Lock{file: fl}, nil
	}
	if !errors.Is(err, errFlockUnavailable) {
		return nil, err
	}

	mutexesMu.Lock()
	m, ok := mutexes[abs]
	if !ok {
		m = &sync.Mutex{}
		mutexes[abs] = m
	}
	mutexesMu.Unlock()

	m.Lock()
	return &Lock{mutex: m}, nil
}

// Release gives up the lock. Calling it more than once is a no-op.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	if l.file != nil {
		l.file.release()
		l.file = nil
	}
	if l.mutex != nil {
		l.mutex.Unlock()
		l.mutex = nil
	}
}

func lockFileName(abs string) string {
	return AppName + "-" + keyFor(abs) + ".lock"
}
