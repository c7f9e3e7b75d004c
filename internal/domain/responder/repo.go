package responder

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNoCapacity is returned when a guarded reservation finds the
// responder already at max capacity. The loser of a reservation race sees
// this rather than a counter past its bound.
var ErrNoCapacity = errors.New("responder has no remaining capacity")

type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Responder, error)
	// List returns responders, optionally filtered by type, each with its
	// nested resource units.
	List(ctx context.Context, typeFilter string) ([]*Responder, error)
	// AvailableAmbulances returns ambulances with availability true and
	// spare capacity.
	AvailableAmbulances(ctx context.Context) ([]*Responder, error)
	// HospitalsWithCapacity returns hospitals that either have an
	// emergency_bed resource with available_count > 0 or no such resource
	// row at all.
	HospitalsWithCapacity(ctx context.Context) ([]*Responder, error)
	GetResources(ctx context.Context, responderID uuid.UUID) ([]*Resource, error)

	// Reserve increments current_capacity by 1 if and only if it is
	// strictly below max_capacity, then recomputes the availability flag.
	// Returns ErrNoCapacity when the guard fails.
	Reserve(ctx context.Context, id uuid.UUID) error
	// Release decrements current_capacity by 1 floored at 0 and sets the
	// availability flag true unconditionally.
	Release(ctx context.Context, id uuid.UUID) error
	// ReserveResource decrements a resource unit's available_count by 1
	// only while it is above 0. A guard failure is a no-op, not an error.
	ReserveResource(ctx context.Context, responderID uuid.UUID, resourceType string) error
	// ReleaseResource increments available_count by 1 capped at
	// total_count.
	ReleaseResource(ctx context.Context, responderID uuid.UUID, resourceType string) error
}
