package responder

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zynd/dispatch/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const responderCols = `id, name, type, specialty, skills, latitude, longitude,
	available, current_capacity, max_capacity, created_at`

func scanResponder(row pgx.Row) (*Responder, error) {
	var rs Responder
	err := row.Scan(&rs.ID, &rs.Name, &rs.Type, &rs.Specialty, &rs.Skills, &rs.Latitude, &rs.Longitude,
		&rs.Available, &rs.CurrentCapacity, &rs.MaxCapacity, &rs.CreatedAt)
	return &rs, err
}

func collectResponders(rows pgx.Rows) ([]*Responder, error) {
	defer rows.Close()
	var out []*Responder
	for rows.Next() {
		rs, err := scanResponder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*Responder, error) {
	rs, err := scanResponder(r.conn(ctx).QueryRow(ctx,
		`SELECT `+responderCols+` FROM responders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	rs.Resources, err = r.GetResources(ctx, rs.ID)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (r *repoPG) List(ctx context.Context, typeFilter string) ([]*Responder, error) {
	q := `SELECT ` + responderCols + ` FROM responders`
	args := []interface{}{}
	if typeFilter != "" {
		q += ` WHERE type = $1`
		args = append(args, typeFilter)
	}
	q += ` ORDER BY name`

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	responders, err := collectResponders(rows)
	if err != nil {
		return nil, err
	}
	for _, rs := range responders {
		rs.Resources, err = r.GetResources(ctx, rs.ID)
		if err != nil {
			return nil, err
		}
	}
	return responders, nil
}

func (r *repoPG) AvailableAmbulances(ctx context.Context) ([]*Responder, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+responderCols+` FROM responders
		WHERE type = $1 AND available = true AND current_capacity < max_capacity
		ORDER BY created_at, id`, TypeAmbulance)
	if err != nil {
		return nil, err
	}
	return collectResponders(rows)
}

func (r *repoPG) HospitalsWithCapacity(ctx context.Context) ([]*Responder, error) {
	// A hospital with no emergency_bed row is unconstrained.
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+responderCols+` FROM responders r
		WHERE r.type = $1
		  AND NOT EXISTS (
			SELECT 1 FROM responder_resources rr
			WHERE rr.responder_id = r.id AND rr.resource_type = $2 AND rr.available_count <= 0
		  )
		ORDER BY r.created_at, r.id`, TypeHospital, ResourceEmergencyBed)
	if err != nil {
		return nil, err
	}
	return collectResponders(rows)
}

func (r *repoPG) GetResources(ctx context.Context, responderID uuid.UUID) ([]*Resource, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, responder_id, resource_type, available_count, total_count
		FROM responder_resources WHERE responder_id = $1 ORDER BY resource_type`, responderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Resource
	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.ResponderID, &res.ResourceType,
			&res.AvailableCount, &res.TotalCount); err != nil {
			return nil, err
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}

// Reserve relies on the guarded WHERE clause for race safety: of two
// concurrent reservations for the last slot, only one UPDATE matches.
func (r *repoPG) Reserve(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE responders
		SET current_capacity = current_capacity + 1,
		    available = current_capacity + 1 < max_capacity
		WHERE id = $1 AND current_capacity < max_capacity`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoCapacity
	}
	return nil
}

func (r *repoPG) Release(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE responders
		SET current_capacity = GREATEST(current_capacity - 1, 0),
		    available = true
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) ReserveResource(ctx context.Context, responderID uuid.UUID, resourceType string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE responder_resources
		SET available_count = available_count - 1
		WHERE responder_id = $1 AND resource_type = $2 AND available_count > 0`,
		responderID, resourceType)
	return err
}

func (r *repoPG) ReleaseResource(ctx context.Context, responderID uuid.UUID, resourceType string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE responder_resources
		SET available_count = LEAST(available_count + 1, total_count)
		WHERE responder_id = $1 AND resource_type = $2`,
		responderID, resourceType)
	return err
}
