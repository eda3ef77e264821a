//go:build linux

package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// errFlockUnavailable is never returned on Linux
var errFlockUnavailable = errors.New("flock not available on this platform")

// fileLock holds an exclusive flock. The kernel drops it when the
// descriptor closes, including on crash, so an orphaned lock file is harmless.
type fileLock struct {
	file *os.File
}

func acquireFileLock(abs string) (*fileLock, error) {
	lockPath := lockFilePathWith(os.Getenv, abs)

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", lockPath, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("flock %s: %w", lockPath, err)
	}

	return &fileLock{file: f}, nil
}

func (l *fileLock) release() {
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
}

// lockFilePathWith prefers $XDG_RUNTIME_DIR (per-user tmpfs) and falls back
// to the temp dir
func lockFilePathWith(getenv func(string) string, abs string) string {
	dir := getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, lockFileName(abs))
}
