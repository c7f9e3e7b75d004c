package dispatch

import (
	"time"

	"github.com/google/uuid"
)

// Case statuses, in lifecycle order.
const (
	StatusActive     = "active"
	StatusAssigned   = "assigned"
	StatusInTransit  = "in_transit"
	StatusAtHospital = "at_hospital"
	StatusResolved   = "resolved"
)

// statusSuccessor is the documented single-step path. Status updates are
// externally driven and validated against the known set; the successor map
// is exposed for clients that want to advance one stage at a time.
var statusSuccessor = map[string]string{
	StatusActive:     StatusAssigned,
	StatusAssigned:   StatusInTransit,
	StatusInTransit:  StatusAtHospital,
	StatusAtHospital: StatusResolved,
}

// ValidStatus reports whether s is one of the five known case statuses.
func ValidStatus(s string) bool {
	if s == StatusResolved {
		return true
	}
	_, ok := statusSuccessor[s]
	return ok
}

// NextStatus returns the documented successor of s, or "" for the terminal
// status.
func NextStatus(s string) string {
	return statusSuccessor[s]
}

// Case is a single emergency incident. The assigned ambulance and hospital
// references, once set, are cleared only by resolution.
type Case struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PatientDID       string     `db:"patient_did" json:"patient_did"`
	Status           string     `db:"status" json:"status"`
	Severity         string     `db:"severity" json:"severity"`
	Symptoms         string     `db:"symptoms" json:"symptoms"`
	EmotionalState   string     `db:"emotional_state" json:"emotional_state"`
	Latitude         float64    `db:"latitude" json:"latitude"`
	Longitude        float64    `db:"longitude" json:"longitude"`
	AmbulanceID      *uuid.UUID `db:"ambulance_id" json:"ambulance_id,omitempty"`
	HospitalID       *uuid.UUID `db:"hospital_id" json:"hospital_id,omitempty"`
	EstimatedArrival *time.Time `db:"estimated_arrival" json:"estimated_arrival,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateInput is the intake payload for a new case.
type CreateInput struct {
	PatientName       string  `json:"patient_name"`
	PatientAge        *int    `json:"patient_age,omitempty"`
	BloodType         string  `json:"blood_type,omitempty"`
	Allergies         string  `json:"allergies,omitempty"`
	MedicalConditions string  `json:"medical_conditions,omitempty"`
	EmergencyContact  string  `json:"emergency_contact,omitempty"`
	Symptoms          string  `json:"symptoms"`
	Severity          string  `json:"severity,omitempty"`
	EmotionalState    string  `json:"emotional_state,omitempty"`
	Transcript        string  `json:"transcript,omitempty"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
}
