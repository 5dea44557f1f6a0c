package dedup

import (
	"context"

	"github.com/google/uuid"

	"github.com/pharmetrix/careplan-service/internal/patient"
	"github.com/pharmetrix/careplan-service/internal/provider"
)

type mockProviderLookup struct {
	getByNPIFunc       func(ctx context.Context, npi string) (*provider.Provider, error)
	findByNameWordFunc func(ctx context.Context, word, excludeNPI string, limit int) ([]provider.Provider, error)
}

func (m *mockProviderLookup) GetByNPI(ctx context.Context, npi string) (*provider.Provider, error) {
	if m.getByNPIFunc != nil {
		return m.getByNPIFunc(ctx, npi)
	}
	return nil, provider.ErrNotFound
}

func (m *mockProviderLookup) FindByNameWord(ctx context.Context, word, excludeNPI string, limit int) ([]provider.Provider, error) {
	if m.findByNameWordFunc != nil {
		return m.findByNameWordFunc(ctx, word, excludeNPI, limit)
	}
	return nil, nil
}

type mockPatientLookup struct {
	getByMRNFunc      func(ctx context.Context, mrn string) (*patient.Patient, error)
	findByNameDOBFunc func(ctx context.Context, firstName, lastName, dob, excludeMRN string) (*patient.Patient, error)
	findByNameFunc    func(ctx context.Context, firstName, lastName, excludeMRN string, limit int) ([]patient.Patient, error)
}

func (m *mockPatientLookup) GetByMRN(ctx context.Context, mrn string) (*patient.Patient, error) {
	if m.getByMRNFunc != nil {
		return m.getByMRNFunc(ctx, mrn)
	}
	return nil, patient.ErrNotFound
}

func (m *mockPatientLookup) FindByNameDOB(ctx context.Context, firstName, lastName, dob, excludeMRN string) (*patient.Patient, error) {
	if m.findByNameDOBFunc != nil {
		return m.findByNameDOBFunc(ctx, firstName, lastName, dob, excludeMRN)
	}
	return nil, nil
}

func (m *mockPatientLookup) FindByName(ctx context.Context, firstName, lastName, excludeMRN string, limit int) ([]patient.Patient, error) {
	if m.findByNameFunc != nil {
		return m.findByNameFunc(ctx, firstName, lastName, excludeMRN, limit)
	}
	return nil, nil
}

type mockOrderLookup struct {
	latestFunc func(ctx context.Context, patientID uuid.UUID, medicationName string) (*OrderRef, error)
}

func (m *mockOrderLookup) LatestByPatientMedication(ctx context.Context, patientID uuid.UUID, medicationName string) (*OrderRef, error) {
	if m.latestFunc != nil {
		return m.latestFunc(ctx, patientID, medicationName)
	}
	return nil, nil
}
