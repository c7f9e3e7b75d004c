package auditlog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	// Latest returns the most recent entry for a case chain (nil caseID
	// addresses the pre-creation chain). Returns nil, nil when the chain
	// is empty.
	Latest(ctx context.Context, caseID *uuid.UUID) (*Entry, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Entry, error)
	// Reconcile assigns caseID to the n most recent unlinked entries,
	// preserving their order, and returns how many rows were updated.
	Reconcile(ctx context.Context, caseID uuid.UUID, n int) (int64, error)
	// LockChain serializes concurrent appends for one case chain for the
	// duration of the surrounding transaction.
	LockChain(ctx context.Context, caseID *uuid.UUID) error
}
