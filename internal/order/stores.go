package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/pharmetrix/careplan-service/internal/careplan"
	"github.com/pharmetrix/careplan-service/internal/dedup"
	"github.com/pharmetrix/careplan-service/internal/patient"
	"github.com/pharmetrix/careplan-service/internal/provider"
)

// ProviderStore is the provider access the intake transaction needs.
type ProviderStore interface {
	dedup.ProviderLookup
	GetByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error)
	Create(ctx context.Context, p *provider.Provider) error
}

// PatientStore is the patient access the intake transaction needs.
type PatientStore interface {
	dedup.PatientLookup
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	Create(ctx context.Context, p *patient.Patient) error
	BackfillDOB(ctx context.Context, id uuid.UUID, dob string) error
	AddDiagnosis(ctx context.Context, d *patient.Diagnosis) error
	AddMedicationEntry(ctx context.Context, m *patient.MedicationEntry) error
	ListDiagnoses(ctx context.Context, patientID uuid.UUID) ([]patient.Diagnosis, error)
	ListMedicationHistory(ctx context.Context, patientID uuid.UUID) ([]patient.MedicationEntry, error)
}

// OrderStore is the order access the service needs.
type OrderStore interface {
	dedup.OrderLookup
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, status Status, limit, offset int) ([]Order, error)
	Count(ctx context.Context, status Status) (int, error)
	ResetToPending(ctx context.Context, id uuid.UUID) error
}

// CarePlanStore is the care-plan access the service needs.
type CarePlanStore interface {
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*careplan.CarePlan, error)
	DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error
}

// Stores bundles the repositories bound to a single transaction or
// connection.
type Stores struct {
	Providers ProviderStore
	Patients  PatientStore
	Orders    OrderStore
	CarePlans CarePlanStore
}

// TxRunner runs fn against transaction-scoped stores, committing when fn
// returns nil and rolling back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Stores) error) error
}

// Queue schedules asynchronous care-plan generation for an order.
type Queue interface {
	EnqueueGeneration(ctx context.Context, orderID uuid.UUID) error
}
