package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service appends to and verifies per-case hash chains. Every write
// failure is propagated: a decision that was not durably logged did not
// happen as far as callers are concerned.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Append writes one chained entry and returns its hash. The chain for
// caseID is locked for the rest of the surrounding transaction, the latest
// entry's hash is read as the link target, and the new entry is inserted
// with that hash as its previous-hash.
func (s *Service) Append(ctx context.Context, caseID *uuid.UUID, agent, action string, detail map[string]interface{}) (string, error) {
	if agent == "" || action == "" {
		return "", fmt.Errorf("agent and action are required")
	}
	if detail == nil {
		// Stored detail and hashed detail must be the same bytes.
		detail = map[string]interface{}{}
	}

	if err := s.repo.LockChain(ctx, caseID); err != nil {
		return "", fmt.Errorf("lock audit chain: %w", err)
	}

	last, err := s.repo.Latest(ctx, caseID)
	if err != nil {
		return "", fmt.Errorf("read latest audit entry: %w", err)
	}

	var prevHash *string
	if last != nil {
		prevHash = &last.Hash
	}

	caseRef := ""
	if caseID != nil {
		caseRef = caseID.String()
	}

	e := &Entry{
		CaseID:       caseID,
		Agent:        agent,
		Action:       action,
		Detail:       detail,
		PreviousHash: prevHash,
		Recorded:     s.now().UTC(),
	}
	e.Hash = ComputeHash(prevHash, caseRef, agent, action, detail, e.Recorded)

	if err := s.repo.Insert(ctx, e); err != nil {
		return "", fmt.Errorf("append audit entry: %w", err)
	}
	return e.Hash, nil
}

// Reconcile links the n most recent unanchored entries to caseID. It is
// an error for fewer entries to be updated than requested: the backfill
// runs in the same transaction that produced the entries, so a shortfall
// means the chain is not what the caller believes it is.
func (s *Service) Reconcile(ctx context.Context, caseID uuid.UUID, n int) error {
	updated, err := s.repo.Reconcile(ctx, caseID, n)
	if err != nil {
		return fmt.Errorf("reconcile audit entries: %w", err)
	}
	if updated != int64(n) {
		return fmt.Errorf("reconcile audit entries: expected %d unlinked entries, updated %d", n, updated)
	}
	return nil
}

// Entries returns a case's chain in append order.
func (s *Service) Entries(ctx context.Context, caseID uuid.UUID) ([]*Entry, error) {
	return s.repo.ListByCase(ctx, caseID)
}

// Verify recomputes a case's chain entry by entry.
func (s *Service) Verify(ctx context.Context, caseID uuid.UUID) error {
	entries, err := s.repo.ListByCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("load audit entries: %w", err)
	}
	return VerifyChain(entries)
}
