package order

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pharmetrix/careplan-service/internal/careplan"
	"github.com/pharmetrix/careplan-service/internal/dedup"
	"github.com/pharmetrix/careplan-service/internal/patient"
	"github.com/pharmetrix/careplan-service/internal/provider"
)

// memStores is an in-memory Stores implementation backing the service tests.
type memStores struct {
	providers []*provider.Provider
	patients  []*patient.Patient
	diagnoses []*patient.Diagnosis
	meds      []*patient.MedicationEntry
	orders    []*Order
	plans     []*careplan.CarePlan

	now time.Time
}

func newMemStores(now time.Time) *memStores {
	return &memStores{now: now}
}

func (m *memStores) stores() Stores {
	return Stores{
		Providers: (*memProviders)(m),
		Patients:  (*memPatients)(m),
		Orders:    (*memOrders)(m),
		CarePlans: (*memPlans)(m),
	}
}

type memProviders memStores

func (m *memProviders) GetByNPI(ctx context.Context, npi string) (*provider.Provider, error) {
	for _, p := range m.providers {
		if p.NPI == npi {
			return p, nil
		}
	}
	return nil, provider.ErrNotFound
}

func (m *memProviders) GetByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	for _, p := range m.providers {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, provider.ErrNotFound
}

func (m *memProviders) FindByNameWord(ctx context.Context, word, excludeNPI string, limit int) ([]provider.Provider, error) {
	var out []provider.Provider
	for _, p := range m.providers {
		if p.NPI != excludeNPI && strings.Contains(strings.ToLower(p.Name), strings.ToLower(word)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProviders) Create(ctx context.Context, p *provider.Provider) error {
	for _, existing := range m.providers {
		if existing.NPI == p.NPI {
			return provider.ErrNPITaken
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.providers = append(m.providers, p)
	return nil
}

type memPatients memStores

func (m *memPatients) GetByMRN(ctx context.Context, mrn string) (*patient.Patient, error) {
	for _, p := range m.patients {
		if p.MRN == mrn {
			return p, nil
		}
	}
	return nil, patient.ErrNotFound
}

func (m *memPatients) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	for _, p := range m.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, patient.ErrNotFound
}

func (m *memPatients) FindByNameDOB(ctx context.Context, firstName, lastName, dob, excludeMRN string) (*patient.Patient, error) {
	for _, p := range m.patients {
		if p.MRN == excludeMRN || p.DOB == nil {
			continue
		}
		if strings.EqualFold(p.FirstName, firstName) && strings.EqualFold(p.LastName, lastName) && *p.DOB == dob {
			return p, nil
		}
	}
	return nil, nil
}

func (m *memPatients) FindByName(ctx context.Context, firstName, lastName, excludeMRN string, limit int) ([]patient.Patient, error) {
	var out []patient.Patient
	for _, p := range m.patients {
		if p.MRN != excludeMRN && strings.EqualFold(p.FirstName, firstName) && strings.EqualFold(p.LastName, lastName) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPatients) Create(ctx context.Context, p *patient.Patient) error {
	for _, existing := range m.patients {
		if existing.MRN == p.MRN {
			return patient.ErrMRNTaken
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.patients = append(m.patients, p)
	return nil
}

func (m *memPatients) BackfillDOB(ctx context.Context, id uuid.UUID, dob string) error {
	for _, p := range m.patients {
		if p.ID == id && p.DOB == nil {
			p.DOB = &dob
		}
	}
	return nil
}

func (m *memPatients) AddDiagnosis(ctx context.Context, d *patient.Diagnosis) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.diagnoses = append(m.diagnoses, d)
	return nil
}

func (m *memPatients) AddMedicationEntry(ctx context.Context, e *patient.MedicationEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.meds = append(m.meds, e)
	return nil
}

func (m *memPatients) ListDiagnoses(ctx context.Context, patientID uuid.UUID) ([]patient.Diagnosis, error) {
	var out []patient.Diagnosis
	for _, d := range m.diagnoses {
		if d.PatientID == patientID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memPatients) ListMedicationHistory(ctx context.Context, patientID uuid.UUID) ([]patient.MedicationEntry, error) {
	var out []patient.MedicationEntry
	for _, e := range m.meds {
		if e.PatientID == patientID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type memOrders memStores

func (m *memOrders) Create(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	o.CreatedAt = m.now
	o.UpdatedAt = m.now
	m.orders = append(m.orders, o)
	return nil
}

func (m *memOrders) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memOrders) List(ctx context.Context, status Status, limit, offset int) ([]Order, error) {
	var out []Order
	skipped := 0
	for i := len(m.orders) - 1; i >= 0 && len(out) < limit; i-- {
		if status != "" && m.orders[i].Status != status {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, *m.orders[i])
	}
	return out, nil
}

func (m *memOrders) Count(ctx context.Context, status Status) (int, error) {
	total := 0
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			total++
		}
	}
	return total, nil
}

func (m *memOrders) LatestByPatientMedication(ctx context.Context, patientID uuid.UUID, medicationName string) (*dedup.OrderRef, error) {
	for i := len(m.orders) - 1; i >= 0; i-- {
		o := m.orders[i]
		if o.PatientID == patientID && strings.EqualFold(o.MedicationName, medicationName) {
			return &dedup.OrderRef{ID: o.ID, Status: string(o.Status), CreatedAt: o.CreatedAt}, nil
		}
	}
	return nil, nil
}

func (m *memOrders) ResetToPending(ctx context.Context, id uuid.UUID) error {
	for _, o := range m.orders {
		if o.ID == id {
			if o.Status != StatusFailed {
				return ErrNotResettable
			}
			o.Status = StatusPending
			o.ErrorMessage = nil
			return nil
		}
	}
	return ErrNotResettable
}

type memPlans memStores

func (m *memPlans) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*careplan.CarePlan, error) {
	for _, cp := range m.plans {
		if cp.OrderID == orderID {
			return cp, nil
		}
	}
	return nil, careplan.ErrNotFound
}

func (m *memPlans) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error {
	kept := m.plans[:0]
	for _, cp := range m.plans {
		if cp.OrderID != orderID {
			kept = append(kept, cp)
		}
	}
	m.plans = kept
	return nil
}

// memTx runs the callback directly over the in-memory stores. Submission
// failures happen before any write, so rollback is not modeled.
type memTx struct {
	mem *memStores
}

func (t *memTx) InTx(ctx context.Context, fn func(Stores) error) error {
	return fn(t.mem.stores())
}

type mockQueue struct {
	enqueued []uuid.UUID
	err      error
}

func (q *mockQueue) EnqueueGeneration(ctx context.Context, orderID uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, orderID)
	return nil
}

type mockPublisher struct {
	routingKeys []string
	events      []any
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	m.routingKeys = append(m.routingKeys, routingKey)
	m.events = append(m.events, event)
	return nil
}
