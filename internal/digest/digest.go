// Package digest computes short content digests for license files.
package digest

import (
	"fmt"

	"github.com/minio/highwayhash"
)

var key = []byte("license-audit/highwayhash/key/v1")

// Sum returns the 64-bit HighwayHash of data as 16 hex digits
func Sum(data []byte) (string, error) {
	hash, err := highwayhash.New64(key)
	if err != nil {
		return "", err
	}
	if _, err := hash.Write(data); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", hash.Sum64()), nil
}
