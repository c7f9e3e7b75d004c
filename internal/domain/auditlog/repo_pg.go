package auditlog

import (
	"context"
	"encoding/binary"
	"errors"

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

const entryCols = `id, seq, case_id, agent, action, detail, previous_hash, current_hash, reconciled, recorded`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Seq, &e.CaseID, &e.Agent, &e.Action, &e.Detail,
		&e.PreviousHash, &e.Hash, &e.Reconciled, &e.Recorded)
	return &e, err
}

func (r *repoPG) Insert(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO agent_log (id, case_id, agent, action, detail, previous_hash, current_hash, reconciled, recorded)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING seq`,
		e.ID, e.CaseID, e.Agent, e.Action, e.Detail, e.PreviousHash, e.Hash, e.Reconciled, e.Recorded).
		Scan(&e.Seq)
}

func (r *repoPG) Latest(ctx context.Context, caseID *uuid.UUID) (*Entry, error) {
	var row pgx.Row
	if caseID == nil {
		row = r.conn(ctx).QueryRow(ctx,
			`SELECT `+entryCols+` FROM agent_log WHERE case_id IS NULL ORDER BY recorded DESC, seq DESC LIMIT 1`)
	} else {
		row = r.conn(ctx).QueryRow(ctx,
			`SELECT `+entryCols+` FROM agent_log WHERE case_id = $1 ORDER BY recorded DESC, seq DESC LIMIT 1`, *caseID)
	}
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *repoPG) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+entryCols+` FROM agent_log WHERE case_id = $1 ORDER BY recorded ASC, seq ASC`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repoPG) Reconcile(ctx context.Context, caseID uuid.UUID, n int) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE agent_log SET case_id = $1, reconciled = true
		WHERE id IN (
			SELECT id FROM agent_log
			WHERE case_id IS NULL
			ORDER BY recorded DESC, seq DESC
			LIMIT $2
		)`, caseID, n)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// LockChain takes a transaction-scoped advisory lock derived from the case
// id. Two concurrent appends to the same chain serialize here, so both
// cannot read the same latest hash and fork the chain.
func (r *repoPG) LockChain(ctx context.Context, caseID *uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, chainLockKey(caseID))
	return err
}

func chainLockKey(caseID *uuid.UUID) int64 {
	if caseID == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(caseID[:8]))
}
