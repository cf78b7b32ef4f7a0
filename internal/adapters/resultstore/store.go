// Package resultstore defines the ranked result snapshot store interface
// and errors.
package resultstore

import (
	"context"
	"time"

	"github.com/nvara/tally/internal/domain/model"
)

// Pass is the complete output of one reconciliation pass. It is replaced
// wholesale on every recomputation and holds no state across passes.
type Pass struct {
	// Entries are scored entities in roster order, unranked; ranking is
	// applied per query.
	Entries []model.RankedEntity

	// Seq is the recomputation pass number.
	Seq uint64

	// ComputedAt records when the pass finished.
	ComputedAt time.Time
}

// Store provides read access to the latest consistent pass and an atomic
// wholesale replace. Implementations must never expose a partially-replaced
// pass to readers.
type Store interface {
	// Replace swaps in the result of a new pass.
	Replace(ctx context.Context, pass Pass)

	// Latest returns the current pass. ok=false before the first replace.
	Latest(ctx context.Context) (Pass, bool)

	// Entity returns the scored entry for one entity id.
	// Returns ErrNotFound if the entity has no scored entry.
	Entity(ctx context.Context, id string) (model.RankedEntity, error)

	// Count returns the number of scored entities in the current pass.
	Count(ctx context.Context) int
}
