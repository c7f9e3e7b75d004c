package patient

import "context"

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByDID(ctx context.Context, did string) (*Patient, error)
	// FindByNameAge returns nil, nil when no patient matches.
	FindByNameAge(ctx context.Context, name string, age *int) (*Patient, error)
	GrantConsent(ctx context.Context, did string) error
}
