//go:build !linux

package staging

import "errors"

// errFlockUnavailable makes Acquire fall back to an in-process mutex
var errFlockUnavailable = errors.New("flock not available on this platform")

type fileLock struct{}

func acquireFileLock(string) (*fileLock, error) {
	return nil, errFlockUnavailable
}

func (l *fileLock) release() {}
