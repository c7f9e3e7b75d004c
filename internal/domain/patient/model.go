package patient

import "time"

// Patient maps to the patients table. Patients are referenced everywhere
// else by their DID, an opaque decentralized identifier, instead of raw
// demographic keys.
type Patient struct {
	DID               string    `db:"patient_did" json:"patient_did"`
	Name              string    `db:"name" json:"name"`
	Age               *int      `db:"age" json:"age,omitempty"`
	BloodType         *string   `db:"blood_type" json:"blood_type,omitempty"`
	Allergies         *string   `db:"allergies" json:"allergies,omitempty"`
	MedicalConditions *string   `db:"medical_conditions" json:"medical_conditions,omitempty"`
	EmergencyContact  *string   `db:"emergency_contact" json:"emergency_contact,omitempty"`
	ConsentStatus     bool      `db:"consent_status" json:"consent_status"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Demographics is the intake payload used to resolve or create a patient.
type Demographics struct {
	Name              string `json:"name"`
	Age               *int   `json:"age,omitempty"`
	BloodType         string `json:"blood_type,omitempty"`
	Allergies         string `json:"allergies,omitempty"`
	MedicalConditions string `json:"medical_conditions,omitempty"`
	EmergencyContact  string `json:"emergency_contact,omitempty"`
}
