package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CaseRepository interface {
	Create(ctx context.Context, c *Case) error
	Get(ctx context.Context, id uuid.UUID) (*Case, error)
	// List returns the most recent cases first, optionally filtered by
	// status.
	List(ctx context.Context, statusFilter string, limit, offset int) ([]*Case, int, error)
	// SetAssignment stores the matched responders, arrival estimate, and
	// the assigned status in one statement.
	SetAssignment(ctx context.Context, id uuid.UUID, ambulanceID, hospitalID *uuid.UUID, arrival *time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type TaskRepository interface {
	Create(ctx context.Context, t *FollowUpTask) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*FollowUpTask, error)
}
