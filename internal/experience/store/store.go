// Package store owns the canonical claim records and the three secondary
// indices (owner, employer address, employer email). Every mutation applies
// the record change and its index moves as one atomic unit, so readers never
// observe a claim whose indices disagree with its fields.
package store

import (
	"context"

	"vouch/internal/experience/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// Storage sentinels, aliased so callers can errors.Is against this package.
var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)

// IndexMoves describes the index updates that must commit together with a
// record mutation. The service computes moves; stores apply them atomically.
type IndexMoves struct {
	// AppendEmployerIndex appends the claim to its employer's index. Done
	// exactly once per claim, at the transition into PENDING.
	AppendEmployerIndex bool
	// RemoveEmailIndex drops the claim from the email index after employer
	// registration. A removed claim never reappears there.
	RemoveEmailIndex bool
	// BindEmail records the global email→address binding. Stores must
	// return ErrConflict when the email is already bound.
	BindEmail *models.EmailBinding
}

// Store is the single source of truth for claim existence and field state.
// Implementations must assign ids monotonically starting at 1 and must never
// reuse an id, even across failed attempts.
type Store interface {
	// Create assigns the next id, persists the record, and indexes it by
	// owner (and by employer email when the employer is unregistered).
	Create(ctx context.Context, rec *models.Experience) (id.ClaimID, error)

	// Get returns the claim or ErrNotFound. The zero id is never present.
	Get(ctx context.Context, claimID id.ClaimID) (*models.Experience, error)

	// Update persists a mutated record together with its index moves.
	Update(ctx context.Context, rec *models.Experience, moves IndexMoves) error

	ListByOwner(ctx context.Context, owner id.Address) ([]*models.Experience, error)
	ListByEmployer(ctx context.Context, employer id.Address) ([]*models.Experience, error)
	ListByEmployerEmail(ctx context.Context, email id.Email) ([]*models.Experience, error)

	// EmailBinding returns the registered binding for an email, or
	// ErrNotFound when the email was never registered.
	EmailBinding(ctx context.Context, email id.Email) (*models.EmailBinding, error)
}
