package patient

import (
	"context"
	"errors"

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

const patientCols = `patient_did, name, age, blood_type, allergies, medical_conditions,
	emergency_contact, consent_status, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.DID, &p.Name, &p.Age, &p.BloodType, &p.Allergies, &p.MedicalConditions,
		&p.EmergencyContact, &p.ConsentStatus, &p.CreatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (patient_did, name, age, blood_type, allergies, medical_conditions,
			emergency_contact, consent_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.DID, p.Name, p.Age, p.BloodType, p.Allergies, p.MedicalConditions,
		p.EmergencyContact, p.ConsentStatus)
	return err
}

func (r *repoPG) GetByDID(ctx context.Context, did string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE patient_did = $1`, did))
}

func (r *repoPG) FindByNameAge(ctx context.Context, name string, age *int) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE name = $1 AND age IS NOT DISTINCT FROM $2`, name, age))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) GrantConsent(ctx context.Context, did string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET consent_status = true WHERE patient_did = $1`, did)
	return err
}
