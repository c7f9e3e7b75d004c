package dispatch

import (
	"context"
	"time"

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

type caseRepoPG struct{ pool *pgxpool.Pool }

func NewCaseRepoPG(pool *pgxpool.Pool) CaseRepository { return &caseRepoPG{pool: pool} }

func (r *caseRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const caseCols = `id, patient_did, status, severity, symptoms, emotional_state,
	latitude, longitude, ambulance_id, hospital_id, estimated_arrival, created_at, updated_at`

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.PatientDID, &c.Status, &c.Severity, &c.Symptoms, &c.EmotionalState,
		&c.Latitude, &c.Longitude, &c.AmbulanceID, &c.HospitalID, &c.EstimatedArrival,
		&c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *caseRepoPG) Create(ctx context.Context, c *Case) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO cases (id, patient_did, status, severity, symptoms, emotional_state, latitude, longitude)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		c.ID, c.PatientDID, c.Status, c.Severity, c.Symptoms, c.EmotionalState,
		c.Latitude, c.Longitude).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *caseRepoPG) Get(ctx context.Context, id uuid.UUID) (*Case, error) {
	return scanCase(r.conn(ctx).QueryRow(ctx,
		`SELECT `+caseCols+` FROM cases WHERE id = $1`, id))
}

func (r *caseRepoPG) List(ctx context.Context, statusFilter string, limit, offset int) ([]*Case, int, error) {
	q := `SELECT ` + caseCols + ` FROM cases`
	countQ := `SELECT COUNT(*) FROM cases`
	args := []interface{}{}
	if statusFilter != "" {
		q += ` WHERE status = $1`
		countQ += ` WHERE status = $1`
		args = append(args, statusFilter)
	}
	q += ` ORDER BY created_at DESC`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if statusFilter != "" {
		q += ` LIMIT $2 OFFSET $3`
	} else {
		q += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *caseRepoPG) SetAssignment(ctx context.Context, id uuid.UUID, ambulanceID, hospitalID *uuid.UUID, arrival *time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE cases
		SET status = $2, ambulance_id = $3, hospital_id = $4, estimated_arrival = $5, updated_at = now()
		WHERE id = $1`,
		id, StatusAssigned, ambulanceID, hospitalID, arrival)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *caseRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE cases SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type taskRepoPG struct{ pool *pgxpool.Pool }

func NewTaskRepoPG(pool *pgxpool.Pool) TaskRepository { return &taskRepoPG{pool: pool} }

func (r *taskRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *taskRepoPG) Create(ctx context.Context, t *FollowUpTask) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO follow_up_tasks (id, case_id, patient_did, task_type, scheduled_for, status, detail)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		t.ID, t.CaseID, t.PatientDID, t.TaskType, t.ScheduledFor, t.Status, t.Detail).
		Scan(&t.CreatedAt)
}

func (r *taskRepoPG) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*FollowUpTask, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, patient_did, task_type, scheduled_for, status, detail, created_at
		FROM follow_up_tasks WHERE case_id = $1 ORDER BY scheduled_for`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*FollowUpTask
	for rows.Next() {
		var t FollowUpTask
		if err := rows.Scan(&t.ID, &t.CaseID, &t.PatientDID, &t.TaskType, &t.ScheduledFor,
			&t.Status, &t.Detail, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
