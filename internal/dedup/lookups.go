package dedup

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pharmetrix/careplan-service/internal/patient"
	"github.com/pharmetrix/careplan-service/internal/provider"
)

// ProviderLookup is the read capability the provider detector needs.
// GetByNPI returns provider.ErrNotFound when the NPI is unknown.
type ProviderLookup interface {
	GetByNPI(ctx context.Context, npi string) (*provider.Provider, error)
	FindByNameWord(ctx context.Context, word string, excludeNPI string, limit int) ([]provider.Provider, error)
}

// PatientLookup is the read capability the patient detector needs.
// GetByMRN returns patient.ErrNotFound when the MRN is unknown;
// FindByNameDOB returns nil without error when there is no match.
type PatientLookup interface {
	GetByMRN(ctx context.Context, mrn string) (*patient.Patient, error)
	FindByNameDOB(ctx context.Context, firstName, lastName, dob string, excludeMRN string) (*patient.Patient, error)
	FindByName(ctx context.Context, firstName, lastName string, excludeMRN string, limit int) ([]patient.Patient, error)
}

// OrderRef is the slice of an existing order the order detector needs.
type OrderRef struct {
	ID        uuid.UUID
	Status    string
	CreatedAt time.Time
}

// OrderLookup is the read capability the order detector needs. It returns
// nil without error when the patient has no order for the medication.
type OrderLookup interface {
	LatestByPatientMedication(ctx context.Context, patientID uuid.UUID, medicationName string) (*OrderRef, error)
}
