package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is identified by MRN, a zero-padded six-digit number. The MRN is
// globally unique and immutable once the record exists; optional demographics
// are backfilled from later intakes only while they are still empty.
type Patient struct {
	ID                          uuid.UUID  `json:"id"`
	MRN                         string     `json:"mrn"`
	FirstName                   string     `json:"first_name"`
	LastName                    string     `json:"last_name"`
	DOB                         *string    `json:"dob,omitempty"` // YYYY-MM-DD
	Sex                         *string    `json:"sex,omitempty"`
	WeightKG                    *float64   `json:"weight_kg,omitempty"`
	Allergies                   *string    `json:"allergies,omitempty"`
	PrimaryDiagnosisCode        string     `json:"primary_diagnosis_code"`
	PrimaryDiagnosisDescription *string    `json:"primary_diagnosis_description,omitempty"`
	CreatedAt                   time.Time  `json:"created_at"`
	UpdatedAt                   *time.Time `json:"updated_at,omitempty"`
}

// FullName returns "First Last" for display and prompt assembly.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Diagnosis is a secondary ICD-10 diagnosis attached to a patient.
type Diagnosis struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	ICD10Code   string    `json:"icd10_code"`
	Description *string   `json:"description,omitempty"`
	IsPrimary   bool      `json:"is_primary"`
	CreatedAt   time.Time `json:"created_at"`
}

// MedicationEntry is one row of a patient's medication history.
type MedicationEntry struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patient_id"`
	MedicationName string    `json:"medication_name"`
	Dosage         *string   `json:"dosage,omitempty"`
	Frequency      *string   `json:"frequency,omitempty"`
	IsCurrent      bool      `json:"is_current"`
	CreatedAt      time.Time `json:"created_at"`
}
