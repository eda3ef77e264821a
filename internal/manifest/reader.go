// Package manifest resolves the production dependencies of a project for one
// package ecosystem, either by running the ecosystem's package manager or by
// reading its lockfile.
package manifest

import (
	"context"
	"fmt"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

// Reader is the interface for ecosystem dependency resolvers
type Reader interface {
	// Ecosystem returns the ecosystem this reader handles
	Ecosystem() models.Ecosystem

	// Read returns the production dependencies of the configured project,
	// de-duplicated by identity
	Read(ctx context.Context, cfg *models.Config) ([]models.Dependency, error)
}

// GetAllReaders returns a reader for every supported ecosystem
func GetAllReaders(runner Runner) []Reader {
	return []Reader{
		&DartReader{Runner: runner},
		&SwiftReader{Runner: runner},
		&GoModReader{},
		&NpmReader{},
	}
}

// Get returns the reader for the given ecosystem
func Get(eco models.Ecosystem, runner Runner) (Reader, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	for _, r := range GetAllReaders(runner) {
		if r.Ecosystem() == eco {
			return r, nil
		}
	}
	return nil, fmt.Errorf("no dependency reader for ecosystem %q", eco)
}
