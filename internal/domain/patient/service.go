package patient

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// didPrefix namespaces the generated identifiers. A production deployment
// would anchor these in a real DID method.
const didPrefix = "did:zynd:"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// FindOrCreate resolves a patient by name and age, creating one with a
// fresh DID when no match exists. Emergency access implies consent, so the
// consent flag is granted either way.
func (s *Service) FindOrCreate(ctx context.Context, d Demographics) (*Patient, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("patient name is required")
	}

	existing, err := s.repo.FindByNameAge(ctx, d.Name, d.Age)
	if err != nil {
		return nil, fmt.Errorf("look up patient: %w", err)
	}
	if existing != nil {
		if !existing.ConsentStatus {
			if err := s.repo.GrantConsent(ctx, existing.DID); err != nil {
				return nil, fmt.Errorf("grant emergency consent: %w", err)
			}
			existing.ConsentStatus = true
		}
		return existing, nil
	}

	did, err := NewDID()
	if err != nil {
		return nil, err
	}
	p := &Patient{
		DID:           did,
		Name:          d.Name,
		Age:           d.Age,
		ConsentStatus: true,
	}
	if d.BloodType != "" {
		p.BloodType = &d.BloodType
	}
	if d.Allergies != "" {
		p.Allergies = &d.Allergies
	}
	if d.MedicalConditions != "" {
		p.MedicalConditions = &d.MedicalConditions
	}
	if d.EmergencyContact != "" {
		p.EmergencyContact = &d.EmergencyContact
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

// Get returns the patient for a DID.
func (s *Service) Get(ctx context.Context, did string) (*Patient, error) {
	return s.repo.GetByDID(ctx, did)
}

// NewDID generates a fresh patient identifier.
func NewDID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate patient did: %w", err)
	}
	return didPrefix + hex.EncodeToString(buf), nil
}
