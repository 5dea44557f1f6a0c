package order

import (
	"time"

	"github.com/google/uuid"
)

// Status is the order lifecycle state. Transitions are monotonic:
// pending → processing → {completed | failed}; failed orders may be
// explicitly reset to pending to trigger regeneration.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is one of the lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Order is one request to produce a generated care plan for a
// patient/provider/medication combination.
type Order struct {
	ID                  uuid.UUID `json:"id"`
	PatientID           uuid.UUID `json:"patient_id"`
	ProviderID          uuid.UUID `json:"provider_id"`
	MedicationName      string    `json:"medication_name"`
	PrimaryDiagnosis    string    `json:"primary_diagnosis"`
	AdditionalDiagnoses []string  `json:"additional_diagnoses"`
	MedicationHistory   []string  `json:"medication_history"`
	PatientRecords      string    `json:"patient_records"`

	Status       Status  `json:"status"`
	ErrorMessage *string `json:"error_message,omitempty"`

	// DuplicateCheckHash fingerprints (patient, provider, medication) for
	// audit queries. ConfirmedNotDuplicate records that the caller overrode
	// a possible-duplicate warning.
	DuplicateCheckHash    *string `json:"duplicate_check_hash,omitempty"`
	ConfirmedNotDuplicate bool    `json:"confirmed_not_duplicate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
