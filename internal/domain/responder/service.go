package responder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("responder not found")

// Service is the capacity ledger plus the responder directory. Matching
// is done elsewhere; the ledger only guarantees that the reservation step
// itself is race-free.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Responder, error) {
	r, err := s.repo.Get(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// List returns responders with nested resource units, optionally filtered
// by type.
func (s *Service) List(ctx context.Context, typeFilter string) ([]*Responder, error) {
	if typeFilter != "" && !ValidType(typeFilter) {
		return nil, fmt.Errorf("unknown responder type %q", typeFilter)
	}
	return s.repo.List(ctx, typeFilter)
}

func (s *Service) AvailableAmbulances(ctx context.Context) ([]*Responder, error) {
	return s.repo.AvailableAmbulances(ctx)
}

func (s *Service) HospitalsWithCapacity(ctx context.Context) ([]*Responder, error) {
	return s.repo.HospitalsWithCapacity(ctx)
}

func (s *Service) Resources(ctx context.Context, responderID uuid.UUID) ([]*Resource, error) {
	return s.repo.GetResources(ctx, responderID)
}

// Reserve takes one capacity slot. ErrNoCapacity means another dispatch
// won the race or the responder was already full.
func (s *Service) Reserve(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Reserve(ctx, id); err != nil {
		if errors.Is(err, ErrNoCapacity) {
			return err
		}
		return fmt.Errorf("reserve responder %s: %w", id, err)
	}
	return nil
}

// Release returns one capacity slot and marks the responder available.
func (s *Service) Release(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Release(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("release responder %s: %w", id, err)
	}
	return nil
}

func (s *Service) ReserveResource(ctx context.Context, responderID uuid.UUID, resourceType string) error {
	if err := s.repo.ReserveResource(ctx, responderID, resourceType); err != nil {
		return fmt.Errorf("reserve %s for responder %s: %w", resourceType, responderID, err)
	}
	return nil
}

func (s *Service) ReleaseResource(ctx context.Context, responderID uuid.UUID, resourceType string) error {
	if err := s.repo.ReleaseResource(ctx, responderID, resourceType); err != nil {
		return fmt.Errorf("release %s for responder %s: %w", resourceType, responderID, err)
	}
	return nil
}
