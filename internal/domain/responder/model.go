package responder

import (
	"time"

	"github.com/google/uuid"
)

// Responder types.
const (
	TypeAmbulance = "ambulance"
	TypeHospital  = "hospital"
)

// ResourceEmergencyBed is the resource type reserved for hospital
// admissions.
const ResourceEmergencyBed = "emergency_bed"

// Responder is an ambulance unit or a hospital. Capacity counters are
// mutated only through the guarded ledger operations on Repository, so
// current_capacity stays within [0, max_capacity].
type Responder struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	Name            string      `db:"name" json:"name"`
	Type            string      `db:"type" json:"type"`
	Specialty       *string     `db:"specialty" json:"specialty,omitempty"`
	Skills          []string    `db:"skills" json:"skills"`
	Latitude        float64     `db:"latitude" json:"latitude"`
	Longitude       float64     `db:"longitude" json:"longitude"`
	Available       bool        `db:"available" json:"available"`
	CurrentCapacity int         `db:"current_capacity" json:"current_capacity"`
	MaxCapacity     int         `db:"max_capacity" json:"max_capacity"`
	Resources       []*Resource `json:"resources,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
}

// Resource is a countable unit belonging to a hospital, such as emergency
// beds. available_count stays within [0, total_count].
type Resource struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ResponderID    uuid.UUID `db:"responder_id" json:"responder_id"`
	ResourceType   string    `db:"resource_type" json:"resource_type"`
	AvailableCount int       `db:"available_count" json:"available_count"`
	TotalCount     int       `db:"total_count" json:"total_count"`
}

// ValidType reports whether t is a known responder type.
func ValidType(t string) bool {
	return t == TypeAmbulance || t == TypeHospital
}
