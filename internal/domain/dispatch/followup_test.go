package dispatch

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zynd/dispatch/internal/domain/triage"
)

func TestGenerateFollowUpTaskSchedule(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hospID := uuid.New()
	c := &Case{ID: uuid.New(), PatientDID: "did:zynd:abc",
		Severity: triage.SeverityCritical, Symptoms: "chest pain", HospitalID: &hospID}

	tasks := GenerateFollowUpTasks(c, now)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}

	byType := map[string]*FollowUpTask{}
	for _, task := range tasks {
		byType[task.TaskType] = task
		if task.CaseID != c.ID || task.PatientDID != c.PatientDID {
			t.Errorf("task %s missing case/patient refs", task.TaskType)
		}
		if task.Status != TaskStatusPending {
			t.Errorf("task %s status = %s", task.TaskType, task.Status)
		}
	}

	if !byType[TaskEHRUpdate].ScheduledFor.Equal(now) {
		t.Error("ehr_update should be scheduled immediately")
	}
	if !byType[TaskInsuranceClaim].ScheduledFor.Equal(now.Add(2 * time.Hour)) {
		t.Error("insurance_claim should be scheduled 2 hours out")
	}
	if !byType[TaskSpecialist].ScheduledFor.Equal(now.Add(24 * time.Hour)) {
		t.Error("specialist_consultation should be scheduled 24 hours out")
	}
	if byType[TaskSpecialist].Detail["hospital_id"] != hospID.String() {
		t.Error("specialist task should carry the hospital reference")
	}
}

func TestGenerateFollowUpLowSeverity(t *testing.T) {
	now := time.Now()
	c := &Case{ID: uuid.New(), PatientDID: "did:zynd:abc", Severity: triage.SeverityLow}

	tasks := GenerateFollowUpTasks(c, now)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.TaskType == TaskSpecialist {
			t.Error("low severity should not schedule a specialist consultation")
		}
	}
}
