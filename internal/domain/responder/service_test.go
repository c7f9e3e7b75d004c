package responder

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// mockRepo keeps counters in memory with the same guard semantics as the
// SQL statements it stands in for.
type mockRepo struct {
	mu         sync.Mutex
	responders map[uuid.UUID]*Responder
	resources  map[uuid.UUID][]*Resource
	listErr    error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		responders: map[uuid.UUID]*Responder{},
		resources:  map[uuid.UUID][]*Resource{},
	}
}

func (m *mockRepo) add(r *Responder, res ...*Resource) {
	m.responders[r.ID] = r
	m.resources[r.ID] = res
}

func (m *mockRepo) Get(ctx context.Context, id uuid.UUID) (*Responder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	cp.Resources = m.resources[id]
	return &cp, nil
}

func (m *mockRepo) List(ctx context.Context, typeFilter string) ([]*Responder, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Responder
	for _, r := range m.responders {
		if typeFilter == "" || r.Type == typeFilter {
			cp := *r
			cp.Resources = m.resources[r.ID]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) AvailableAmbulances(ctx context.Context) ([]*Responder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Responder
	for _, r := range m.responders {
		if r.Type == TypeAmbulance && r.Available && r.CurrentCapacity < r.MaxCapacity {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) HospitalsWithCapacity(ctx context.Context) ([]*Responder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Responder
	for _, r := range m.responders {
		if r.Type != TypeHospital {
			continue
		}
		ok := true
		for _, res := range m.resources[r.ID] {
			if res.ResourceType == ResourceEmergencyBed && res.AvailableCount <= 0 {
				ok = false
			}
		}
		if ok {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) GetResources(ctx context.Context, responderID uuid.UUID) ([]*Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resources[responderID], nil
}

func (m *mockRepo) Reserve(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responders[id]
	if !ok || r.CurrentCapacity >= r.MaxCapacity {
		return ErrNoCapacity
	}
	r.CurrentCapacity++
	r.Available = r.CurrentCapacity < r.MaxCapacity
	return nil
}

func (m *mockRepo) Release(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if r.CurrentCapacity > 0 {
		r.CurrentCapacity--
	}
	r.Available = true
	return nil
}

func (m *mockRepo) ReserveResource(ctx context.Context, responderID uuid.UUID, resourceType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, res := range m.resources[responderID] {
		if res.ResourceType == resourceType && res.AvailableCount > 0 {
			res.AvailableCount--
		}
	}
	return nil
}

func (m *mockRepo) ReleaseResource(ctx context.Context, responderID uuid.UUID, resourceType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, res := range m.resources[responderID] {
		if res.ResourceType == resourceType && res.AvailableCount < res.TotalCount {
			res.AvailableCount++
		}
	}
	return nil
}

func ambulance(name string, current, max int) *Responder {
	return &Responder{ID: uuid.New(), Name: name, Type: TypeAmbulance,
		Available: current < max, CurrentCapacity: current, MaxCapacity: max}
}

func TestReserveFailsClosedAtMaxCapacity(t *testing.T) {
	repo := newMockRepo()
	amb := ambulance("Unit 7", 0, 1)
	repo.add(amb)
	svc := NewService(repo)

	if err := svc.Reserve(context.Background(), amb.ID); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := svc.Reserve(context.Background(), amb.ID); !errors.Is(err, ErrNoCapacity) {
		t.Errorf("expected ErrNoCapacity on full responder, got %v", err)
	}
	if amb.CurrentCapacity != 1 {
		t.Errorf("capacity left bounds: %d", amb.CurrentCapacity)
	}
	if amb.Available {
		t.Error("responder at max capacity should not be available")
	}
}

func TestConcurrentReserveOnlyOneWins(t *testing.T) {
	repo := newMockRepo()
	amb := ambulance("Unit 1", 0, 1)
	repo.add(amb)
	svc := NewService(repo)

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Reserve(context.Background(), amb.ID)
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrNoCapacity) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly 1 winning reservation, got %d", wins)
	}
	if amb.CurrentCapacity != 1 {
		t.Errorf("capacity out of bounds: %d", amb.CurrentCapacity)
	}
}

func TestReleaseFloorsAtZeroAndSetsAvailable(t *testing.T) {
	repo := newMockRepo()
	amb := ambulance("Unit 2", 0, 2)
	repo.add(amb)
	svc := NewService(repo)

	if err := svc.Release(context.Background(), amb.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if amb.CurrentCapacity != 0 {
		t.Errorf("capacity went negative: %d", amb.CurrentCapacity)
	}
	if !amb.Available {
		t.Error("release should set available true")
	}
	if err := svc.Release(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown responder, got %v", err)
	}
}

func TestResourceCountsStayWithinBounds(t *testing.T) {
	repo := newMockRepo()
	hosp := &Responder{ID: uuid.New(), Name: "City General", Type: TypeHospital,
		Available: true, MaxCapacity: 10}
	bed := &Resource{ID: uuid.New(), ResponderID: hosp.ID,
		ResourceType: ResourceEmergencyBed, AvailableCount: 1, TotalCount: 1}
	repo.add(hosp, bed)
	svc := NewService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.ReserveResource(ctx, hosp.ID, ResourceEmergencyBed); err != nil {
			t.Fatalf("reserve resource: %v", err)
		}
	}
	if bed.AvailableCount != 0 {
		t.Errorf("available_count went negative: %d", bed.AvailableCount)
	}
	for i := 0; i < 3; i++ {
		if err := svc.ReleaseResource(ctx, hosp.ID, ResourceEmergencyBed); err != nil {
			t.Fatalf("release resource: %v", err)
		}
	}
	if bed.AvailableCount != bed.TotalCount {
		t.Errorf("available_count exceeded total_count: %d/%d", bed.AvailableCount, bed.TotalCount)
	}
}

func TestListRejectsUnknownType(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.List(context.Background(), "drone"); err == nil {
		t.Error("expected error for unknown responder type")
	}
}

func TestHospitalsWithCapacityExcludesFullBeds(t *testing.T) {
	repo := newMockRepo()
	full := &Responder{ID: uuid.New(), Name: "Full Hospital", Type: TypeHospital, Available: true}
	repo.add(full, &Resource{ID: uuid.New(), ResponderID: full.ID,
		ResourceType: ResourceEmergencyBed, AvailableCount: 0, TotalCount: 5})
	open := &Responder{ID: uuid.New(), Name: "Open Hospital", Type: TypeHospital, Available: true}
	repo.add(open, &Resource{ID: uuid.New(), ResponderID: open.ID,
		ResourceType: ResourceEmergencyBed, AvailableCount: 2, TotalCount: 5})
	unconstrained := &Responder{ID: uuid.New(), Name: "Rural Clinic", Type: TypeHospital, Available: true}
	repo.add(unconstrained)

	svc := NewService(repo)
	hospitals, err := svc.HospitalsWithCapacity(context.Background())
	if err != nil {
		t.Fatalf("hospitals: %v", err)
	}
	names := map[string]bool{}
	for _, h := range hospitals {
		names[h.Name] = true
	}
	if names["Full Hospital"] {
		t.Error("hospital with zero beds should be excluded")
	}
	if !names["Open Hospital"] || !names["Rural Clinic"] {
		t.Errorf("expected open and unconstrained hospitals, got %v", names)
	}
}
