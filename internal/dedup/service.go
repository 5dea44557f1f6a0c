package dedup

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pharmetrix/careplan-service/internal/patient"
	"github.com/pharmetrix/careplan-service/internal/provider"
)

// Input bundles the identifying fields the composition step checks.
type Input struct {
	ProviderNPI      string
	ProviderName     string
	PatientMRN       string
	PatientFirstName string
	PatientLastName  string
	PatientDOB       string // YYYY-MM-DD, may be empty
	MedicationName   string
	Confirm          bool
}

// Service runs all three detectors in sequence over one set of lookups.
type Service struct {
	providers *ProviderDetector
	patients  *PatientDetector
	orders    *OrderDetector
}

func NewService(providers ProviderLookup, patients PatientLookup, orders OrderLookup) *Service {
	return &Service{
		providers: NewProviderDetector(providers),
		patients:  NewPatientDetector(patients),
		orders:    NewOrderDetector(orders),
	}
}

// WithClock pins the order detector's clock for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.orders.WithClock(now)
	return s
}

// CheckAll runs provider, then patient, then order detection. The order check
// is skipped when the provider check blocked (no valid provider to order
// against) or when the patient is not yet persisted.
func (s *Service) CheckAll(ctx context.Context, in Input) (*FullResult, error) {
	providerResult, err := s.providers.Check(ctx, in.ProviderNPI, in.ProviderName)
	if err != nil {
		return nil, err
	}

	patientResult, err := s.patients.Check(ctx, in.PatientMRN, in.PatientFirstName, in.PatientLastName, in.PatientDOB)
	if err != nil {
		return nil, err
	}

	result := &FullResult{Provider: providerResult, Patient: patientResult}

	if in.MedicationName == "" || providerResult.ShouldBlock {
		return result, nil
	}

	var patientID *uuid.UUID
	if existing := result.ExistingPatient(); existing != nil {
		patientID = &existing.ID
	}

	orderResult, err := s.orders.Check(ctx, patientID, in.MedicationName, in.Confirm)
	if err != nil {
		return nil, err
	}
	result.Order = orderResult
	return result, nil
}

// ExistingProvider returns the matched provider when it is safe to reuse.
func (r *FullResult) ExistingProvider() *provider.Provider {
	if r.Provider == nil || !r.Provider.IsDuplicate || r.Provider.ShouldBlock {
		return nil
	}
	p, _ := r.Provider.ExistingRecord.(*provider.Provider)
	return p
}

// ExistingPatient returns the patient matched by MRN, if any.
func (r *FullResult) ExistingPatient() *patient.Patient {
	if r.Patient == nil || !r.Patient.IsDuplicate {
		return nil
	}
	p, _ := r.Patient.ExistingRecord.(*patient.Patient)
	return p
}
