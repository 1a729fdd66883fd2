package ports

import (
	"context"

	"github.com/bft-labs/meshlog/internal/domain"
)

// StateRepository persists the read position of a record source so that a
// restart resumes where the previous run stopped.
type StateRepository interface {
	// Load retrieves the last saved state.
	// Returns an empty state and nil error if no state exists.
	// Returns an error only for actual read failures.
	Load(ctx context.Context) (domain.SourceState, error)

	// Save persists the current state atomically.
	Save(ctx context.Context, state domain.SourceState) error
}
