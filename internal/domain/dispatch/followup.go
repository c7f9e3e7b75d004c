package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/zynd/dispatch/internal/domain/triage"
)

// Follow-up task types.
const (
	TaskEHRUpdate      = "ehr_update"
	TaskInsuranceClaim = "insurance_claim"
	TaskSpecialist     = "specialist_consultation"
)

// TaskStatusPending is the initial status of every generated task. Task
// status progression happens outside this engine.
const TaskStatusPending = "pending"

// FollowUpTask is a scheduled post-resolution action.
type FollowUpTask struct {
	ID           uuid.UUID              `db:"id" json:"id"`
	CaseID       uuid.UUID              `db:"case_id" json:"case_id"`
	PatientDID   string                 `db:"patient_did" json:"patient_did"`
	TaskType     string                 `db:"task_type" json:"task_type"`
	ScheduledFor time.Time              `db:"scheduled_for" json:"scheduled_for"`
	Status       string                 `db:"status" json:"status"`
	Detail       map[string]interface{} `db:"detail" json:"detail"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
}

// GenerateFollowUpTasks derives the post-resolution task set for a case:
// an immediate EHR update, an insurance claim 2 hours out, and for high or
// critical severity a specialist consultation 24 hours out.
func GenerateFollowUpTasks(c *Case, now time.Time) []*FollowUpTask {
	tasks := []*FollowUpTask{
		{
			CaseID:       c.ID,
			PatientDID:   c.PatientDID,
			TaskType:     TaskEHRUpdate,
			ScheduledFor: now,
			Status:       TaskStatusPending,
			Detail: map[string]interface{}{
				"reason":   "record emergency encounter",
				"symptoms": c.Symptoms,
			},
		},
		{
			CaseID:       c.ID,
			PatientDID:   c.PatientDID,
			TaskType:     TaskInsuranceClaim,
			ScheduledFor: now.Add(2 * time.Hour),
			Status:       TaskStatusPending,
			Detail: map[string]interface{}{
				"reason":   "file claim for emergency response",
				"severity": c.Severity,
			},
		},
	}
	if c.Severity == triage.SeverityHigh || c.Severity == triage.SeverityCritical {
		detail := map[string]interface{}{
			"reason":   "post-emergency specialist review",
			"severity": c.Severity,
		}
		if c.HospitalID != nil {
			detail["hospital_id"] = c.HospitalID.String()
		}
		tasks = append(tasks, &FollowUpTask{
			CaseID:       c.ID,
			PatientDID:   c.PatientDID,
			TaskType:     TaskSpecialist,
			ScheduledFor: now.Add(24 * time.Hour),
			Status:       TaskStatusPending,
			Detail:       detail,
		})
	}
	return tasks
}
