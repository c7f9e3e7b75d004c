package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zynd/dispatch/internal/domain/auditlog"
	"github.com/zynd/dispatch/internal/domain/patient"
	"github.com/zynd/dispatch/internal/domain/responder"
	"github.com/zynd/dispatch/internal/domain/triage"
	"github.com/zynd/dispatch/internal/platform/db"
)

var (
	ErrNotFound      = errors.New("case not found")
	ErrInvalidStatus = errors.New("invalid case status")
	ErrInvalidInput  = errors.New("invalid input")
)

// NoAmbulanceError means the matcher found no qualifying ambulance. The
// case is left untouched; the hospital candidate, if any, rides along for
// operator visibility.
type NoAmbulanceError struct {
	Hospital *responder.Responder
}

func (e *NoAmbulanceError) Error() string {
	if e.Hospital != nil {
		return fmt.Sprintf("no ambulance available (candidate hospital: %s)", e.Hospital.Name)
	}
	return "no ambulance available"
}

type patientResolver interface {
	FindOrCreate(ctx context.Context, d patient.Demographics) (*patient.Patient, error)
	Get(ctx context.Context, did string) (*patient.Patient, error)
}

type auditLogger interface {
	Append(ctx context.Context, caseID *uuid.UUID, agent, action string, detail map[string]interface{}) (string, error)
	Reconcile(ctx context.Context, caseID uuid.UUID, n int) error
	Entries(ctx context.Context, caseID uuid.UUID) ([]*auditlog.Entry, error)
	Verify(ctx context.Context, caseID uuid.UUID) error
}

type capacityLedger interface {
	Get(ctx context.Context, id uuid.UUID) (*responder.Responder, error)
	AvailableAmbulances(ctx context.Context) ([]*responder.Responder, error)
	HospitalsWithCapacity(ctx context.Context) ([]*responder.Responder, error)
	Resources(ctx context.Context, responderID uuid.UUID) ([]*responder.Resource, error)
	Reserve(ctx context.Context, id uuid.UUID) error
	Release(ctx context.Context, id uuid.UUID) error
	ReserveResource(ctx context.Context, responderID uuid.UUID, resourceType string) error
	ReleaseResource(ctx context.Context, responderID uuid.UUID, resourceType string) error
}

// Service is the case lifecycle manager. Every public mutation runs as one
// transaction: the case row, capacity counters, and log entries commit or
// roll back together, so partial application is never observable.
type Service struct {
	cases    CaseRepository
	tasks    TaskRepository
	patients patientResolver
	audit    auditLogger
	ledger   capacityLedger
	tx       db.TxRunner
	now      func() time.Time
}

func NewService(cases CaseRepository, tasks TaskRepository, patients patientResolver,
	audit auditLogger, ledger capacityLedger, tx db.TxRunner) *Service {
	return &Service{
		cases:    cases,
		tasks:    tasks,
		patients: patients,
		audit:    audit,
		ledger:   ledger,
		tx:       tx,
		now:      time.Now,
	}
}

// AssignResult is what a successful assignment reports back to the caller.
type AssignResult struct {
	Case       *Case   `json:"case"`
	Ambulance  string  `json:"ambulance"`
	Hospital   *string `json:"hospital,omitempty"`
	DistanceKm float64 `json:"distance_km"`
	ETAMinutes int     `json:"eta_minutes"`
}

// StatusResult pairs the new status with any follow-up tasks generated by
// the transition.
type StatusResult struct {
	Case          *Case           `json:"case"`
	FollowUpTasks []*FollowUpTask `json:"follow_up_tasks,omitempty"`
}

// CaseDetail is a case with its audit trail, follow-up tasks, and the
// related patient and responder records.
type CaseDetail struct {
	Case          *Case                `json:"case"`
	Patient       *patient.Patient     `json:"patient,omitempty"`
	Ambulance     *responder.Responder `json:"ambulance,omitempty"`
	Hospital      *responder.Responder `json:"hospital,omitempty"`
	AgentLog      []*auditlog.Entry    `json:"agent_log"`
	FollowUpTasks []*FollowUpTask      `json:"follow_up_tasks"`
}

// Create runs intake: triage classification, patient identity resolution,
// and insertion of a new active case. Triage and identity decisions are
// logged before the case row exists and reconciled onto the new chain once
// the id is known, all within one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Case, error) {
	if in.Symptoms == "" {
		return nil, fmt.Errorf("%w: symptoms are required", ErrInvalidInput)
	}
	if in.PatientName == "" {
		return nil, fmt.Errorf("%w: patient name is required", ErrInvalidInput)
	}

	// Upstream triage output is honored when supplied; the built-in
	// classifier fills whatever is missing.
	t := triage.Classify(in.Symptoms, in.Transcript)
	severity := in.Severity
	if severity == "" {
		severity = t.Severity
	} else if !triage.ValidSeverity(severity) {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, severity)
	}
	emotionalState := in.EmotionalState
	if emotionalState == "" {
		emotionalState = t.EmotionalState
	}

	var c *Case
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.audit.Append(ctx, nil, auditlog.AgentVoice, auditlog.ActionInitialTriage,
			map[string]interface{}{
				"symptoms":        in.Symptoms,
				"severity":        severity,
				"emotional_state": emotionalState,
			}); err != nil {
			return err
		}

		p, err := s.patients.FindOrCreate(ctx, patient.Demographics{
			Name:              in.PatientName,
			Age:               in.PatientAge,
			BloodType:         in.BloodType,
			Allergies:         in.Allergies,
			MedicalConditions: in.MedicalConditions,
			EmergencyContact:  in.EmergencyContact,
		})
		if err != nil {
			return err
		}
		if _, err := s.audit.Append(ctx, nil, auditlog.AgentIdentity, auditlog.ActionPatientIdentified,
			map[string]interface{}{
				"patient_did": p.DID,
				"name":        p.Name,
			}); err != nil {
			return err
		}

		c = &Case{
			ID:             uuid.New(),
			PatientDID:     p.DID,
			Status:         StatusActive,
			Severity:       severity,
			Symptoms:       in.Symptoms,
			EmotionalState: emotionalState,
			Latitude:       in.Latitude,
			Longitude:      in.Longitude,
		}
		if err := s.cases.Create(ctx, c); err != nil {
			return fmt.Errorf("create case: %w", err)
		}

		return s.audit.Reconcile(ctx, c.ID, 2)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Assign matches and reserves responders for a case. No ambulance means no
// mutation: the transaction rolls back and the caller receives
// NoAmbulanceError with the hospital candidate, if one existed.
func (s *Service) Assign(ctx context.Context, caseID uuid.UUID) (*AssignResult, error) {
	var result *AssignResult
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.cases.Get(ctx, caseID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load case: %w", err)
		}
		if c.AmbulanceID != nil {
			return fmt.Errorf("%w: case already has an assigned ambulance", ErrInvalidInput)
		}

		ambulances, err := s.ledger.AvailableAmbulances(ctx)
		if err != nil {
			return fmt.Errorf("load ambulances: %w", err)
		}
		hospitals, err := s.ledger.HospitalsWithCapacity(ctx)
		if err != nil {
			return fmt.Errorf("load hospitals: %w", err)
		}

		m := Match(c, ambulances, hospitals, s.now())
		if m.Ambulance == nil {
			return &NoAmbulanceError{Hospital: m.Hospital}
		}

		if err := s.ledger.Reserve(ctx, m.Ambulance.ID); err != nil {
			if errors.Is(err, responder.ErrNoCapacity) {
				// Lost the race for the last slot after the snapshot.
				return &NoAmbulanceError{Hospital: m.Hospital}
			}
			return err
		}

		var hospitalID *uuid.UUID
		if m.Hospital != nil {
			hospitalID = &m.Hospital.ID
		}
		ambulanceID := m.Ambulance.ID
		arrival := m.EstimatedArrival
		if err := s.cases.SetAssignment(ctx, c.ID, &ambulanceID, hospitalID, &arrival); err != nil {
			return fmt.Errorf("store assignment: %w", err)
		}
		c.Status = StatusAssigned
		c.AmbulanceID = &ambulanceID
		c.HospitalID = hospitalID
		c.EstimatedArrival = &arrival

		detail := map[string]interface{}{
			"ambulance":   m.Ambulance.Name,
			"distance_km": m.AmbulanceDistanceKm,
			"eta_minutes": float64(m.ETAMinutes),
		}
		if m.Hospital != nil {
			detail["hospital"] = m.Hospital.Name
		}
		if _, err := s.audit.Append(ctx, &c.ID, auditlog.AgentRoleAssignment,
			auditlog.ActionRespondersAssigned, detail); err != nil {
			return err
		}

		if m.Hospital != nil {
			if err := s.ledger.ReserveResource(ctx, m.Hospital.ID, responder.ResourceEmergencyBed); err != nil {
				return err
			}
			allocDetail := map[string]interface{}{
				"hospital":      m.Hospital.Name,
				"resource_type": responder.ResourceEmergencyBed,
			}
			// Snapshot read is enrichment only and non-fatal: the
			// reservation above is the mutation that matters.
			if resources, err := s.ledger.Resources(ctx, m.Hospital.ID); err == nil {
				for _, res := range resources {
					if res.ResourceType == responder.ResourceEmergencyBed {
						allocDetail["beds_remaining"] = float64(res.AvailableCount)
					}
				}
			}
			if _, err := s.audit.Append(ctx, &c.ID, auditlog.AgentResourcePool,
				auditlog.ActionResourcesAllocated, allocDetail); err != nil {
				return err
			}
		}

		result = &AssignResult{
			Case:       c,
			Ambulance:  m.Ambulance.Name,
			DistanceKm: m.AmbulanceDistanceKm,
			ETAMinutes: m.ETAMinutes,
		}
		if m.Hospital != nil {
			name := m.Hospital.Name
			result.Hospital = &name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus moves a case to a new status. Resolution additionally
// generates follow-up tasks and releases reserved capacity, all in the
// same transaction as the status write.
func (s *Service) UpdateStatus(ctx context.Context, caseID uuid.UUID, status string) (*StatusResult, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var result *StatusResult
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.cases.Get(ctx, caseID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load case: %w", err)
		}

		previous := c.Status
		if err := s.cases.UpdateStatus(ctx, c.ID, status); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		c.Status = status

		if _, err := s.audit.Append(ctx, &c.ID, auditlog.AgentCoordination,
			auditlog.ActionStatusUpdated, map[string]interface{}{
				"previous_status": previous,
				"new_status":      status,
			}); err != nil {
			return err
		}

		result = &StatusResult{Case: c}
		if status != StatusResolved {
			return nil
		}

		tasks := GenerateFollowUpTasks(c, s.now())
		taskTypes := make([]interface{}, 0, len(tasks))
		for _, t := range tasks {
			if err := s.tasks.Create(ctx, t); err != nil {
				return fmt.Errorf("persist follow-up task %s: %w", t.TaskType, err)
			}
			taskTypes = append(taskTypes, t.TaskType)
		}
		if _, err := s.audit.Append(ctx, &c.ID, auditlog.AgentFollowUp,
			auditlog.ActionTasksCreated, map[string]interface{}{
				"count": float64(len(tasks)),
				"types": taskTypes,
			}); err != nil {
			return err
		}

		if c.AmbulanceID != nil {
			if err := s.ledger.Release(ctx, *c.AmbulanceID); err != nil {
				return err
			}
		}
		if c.HospitalID != nil {
			if err := s.ledger.ReleaseResource(ctx, *c.HospitalID, responder.ResourceEmergencyBed); err != nil {
				return err
			}
		}
		result.FollowUpTasks = tasks
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns a case with its audit trail, follow-up tasks, and related
// patient and responder records.
func (s *Service) Get(ctx context.Context, caseID uuid.UUID) (*CaseDetail, error) {
	c, err := s.cases.Get(ctx, caseID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load case: %w", err)
	}
	entries, err := s.audit.Entries(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load audit entries: %w", err)
	}
	tasks, err := s.tasks.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load follow-up tasks: %w", err)
	}

	detail := &CaseDetail{Case: c, AgentLog: entries, FollowUpTasks: tasks}
	// Enrichment reads are non-fatal: the case, its log, and its tasks are
	// the answer; missing related records degrade the view, not the call.
	if p, err := s.patients.Get(ctx, c.PatientDID); err == nil {
		detail.Patient = p
	}
	if c.AmbulanceID != nil {
		if r, err := s.ledger.Get(ctx, *c.AmbulanceID); err == nil {
			detail.Ambulance = r
		}
	}
	if c.HospitalID != nil {
		if r, err := s.ledger.Get(ctx, *c.HospitalID); err == nil {
			detail.Hospital = r
		}
	}
	return detail, nil
}

// List returns cases newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, statusFilter string, limit, offset int) ([]*Case, int, error) {
	if statusFilter != "" && !ValidStatus(statusFilter) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, statusFilter)
	}
	return s.cases.List(ctx, statusFilter, limit, offset)
}

// AuditEntries returns a case's chain in append order.
func (s *Service) AuditEntries(ctx context.Context, caseID uuid.UUID) ([]*auditlog.Entry, error) {
	if _, err := s.cases.Get(ctx, caseID); errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load case: %w", err)
	}
	return s.audit.Entries(ctx, caseID)
}

// VerifyAudit recomputes a case's hash chain and reports the first broken
// entry, if any.
func (s *Service) VerifyAudit(ctx context.Context, caseID uuid.UUID) error {
	if _, err := s.cases.Get(ctx, caseID); errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return fmt.Errorf("load case: %w", err)
	}
	return s.audit.Verify(ctx, caseID)
}
