package order

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pharmetrix/careplan-service/internal/careplan"
	"github.com/pharmetrix/careplan-service/internal/dedup"
	"github.com/pharmetrix/careplan-service/internal/intake"
	"github.com/pharmetrix/careplan-service/internal/messaging"
	"github.com/pharmetrix/careplan-service/internal/pagination"
	"github.com/pharmetrix/careplan-service/internal/patient"
	"github.com/pharmetrix/careplan-service/internal/provider"
	"github.com/pharmetrix/careplan-service/internal/validate"
)

// EventPublisher emits lifecycle events to the message bus. A nil publisher
// disables events.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// IntakeMetrics records intake outcomes. A nil recorder disables metrics.
type IntakeMetrics interface {
	RecordIntake(ctx context.Context, source, outcome string)
}

// SubmitResult is the outcome of an accepted submission.
type SubmitResult struct {
	Order    *Order          `json:"order"`
	Warnings []dedup.Warning `json:"warnings"`
	// Queued is false when the order was committed but generation could not
	// be scheduled; the order stays pending until reset or redelivery.
	Queued bool `json:"queued"`
}

// StatusResult is an order with its care-plan availability.
type StatusResult struct {
	Order   *Order `json:"order"`
	HasPlan bool   `json:"has_plan"`
}

// Service orchestrates intake: source adaptation, identifier validation,
// duplicate detection, entity reuse-or-create, and generation scheduling.
type Service struct {
	registry *intake.Registry
	tx       TxRunner
	queue    Queue
	events   EventPublisher
	metrics  IntakeMetrics
	now      func() time.Time
}

func NewService(registry *intake.Registry, tx TxRunner, queue Queue, events EventPublisher) *Service {
	return &Service{
		registry: registry,
		tx:       tx,
		queue:    queue,
		events:   events,
		now:      time.Now,
	}
}

// WithClock pins the service clock for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithMetrics attaches an intake outcome recorder.
func (s *Service) WithMetrics(m IntakeMetrics) *Service {
	s.metrics = m
	return s
}

// SubmitRaw adapts a raw partner payload and submits the canonical order.
func (s *Service) SubmitRaw(ctx context.Context, source string, raw []byte) (*SubmitResult, error) {
	order, err := s.registry.Process(source, raw)
	if err != nil {
		s.recordIntake(ctx, source, "invalid_payload")
		return nil, err
	}

	result, err := s.submit(ctx, source, order)
	s.recordIntake(ctx, source, submitOutcome(err))
	return result, err
}

func submitOutcome(err error) string {
	var validationErr *ValidationError
	var blockedErr *BlockedError
	var confirmErr *ConfirmationRequiredError
	switch {
	case err == nil:
		return "accepted"
	case errors.As(err, &validationErr):
		return "validation_error"
	case errors.As(err, &blockedErr):
		return "blocked"
	case errors.As(err, &confirmErr):
		return "confirmation_required"
	default:
		return "error"
	}
}

func (s *Service) recordIntake(ctx context.Context, source, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordIntake(ctx, source, outcome)
	}
}

// Submit validates identifiers, runs duplicate detection, persists the
// provider, patient, and order in one transaction, and schedules generation
// after commit. Nothing is persisted when the submission is blocked or
// requires confirmation.
func (s *Service) Submit(ctx context.Context, o *intake.CanonicalOrder) (*SubmitResult, error) {
	return s.submit(ctx, "", o)
}

func (s *Service) submit(ctx context.Context, source string, o *intake.CanonicalOrder) (*SubmitResult, error) {
	o.Patient.MRN = validate.NormalizeMRN(o.Patient.MRN)
	if err := validate.MRN(o.Patient.MRN); err != nil {
		return nil, &ValidationError{Field: "patient_mrn", Reason: err.Error()}
	}
	if err := validate.NPI(o.Provider.NPI); err != nil {
		return nil, &ValidationError{Field: "provider_npi", Reason: err.Error()}
	}
	if o.PrimaryDiagnosis != "" {
		o.PrimaryDiagnosis = validate.NormalizeICD10(o.PrimaryDiagnosis)
		if err := validate.ICD10(o.PrimaryDiagnosis); err != nil {
			return nil, &ValidationError{Field: "primary_diagnosis", Reason: err.Error()}
		}
	}
	for i, code := range o.AdditionalDiagnoses {
		o.AdditionalDiagnoses[i] = validate.NormalizeICD10(code)
	}

	var created *Order
	var warnings []dedup.Warning

	err := s.tx.InTx(ctx, func(st Stores) error {
		checker := dedup.NewService(st.Providers, st.Patients, st.Orders).WithClock(s.now)
		result, err := checker.CheckAll(ctx, dedup.Input{
			ProviderNPI:      o.Provider.NPI,
			ProviderName:     o.Provider.Name,
			PatientMRN:       o.Patient.MRN,
			PatientFirstName: o.Patient.FirstName,
			PatientLastName:  o.Patient.LastName,
			PatientDOB:       o.Patient.DOB,
			MedicationName:   o.MedicationName,
			Confirm:          o.Confirm,
		})
		if err != nil {
			return fmt.Errorf("duplicate check failed: %w", err)
		}

		warnings = result.AllWarnings()
		if result.HasBlockingIssues() {
			return &BlockedError{Warnings: warnings}
		}
		if result.RequiresConfirmation() && !o.Confirm {
			return &ConfirmationRequiredError{Warnings: warnings}
		}

		prov, err := s.resolveProvider(ctx, st, o, result)
		if err != nil {
			return err
		}
		pat, err := s.resolvePatient(ctx, st, o, result)
		if err != nil {
			return err
		}

		hash := duplicateHash(pat.MRN, prov.NPI, o.MedicationName)
		created = &Order{
			PatientID:             pat.ID,
			ProviderID:            prov.ID,
			MedicationName:        o.MedicationName,
			PrimaryDiagnosis:      o.PrimaryDiagnosis,
			AdditionalDiagnoses:   o.AdditionalDiagnoses,
			MedicationHistory:     o.MedicationHistory,
			PatientRecords:        o.PatientRecords,
			Status:                StatusPending,
			DuplicateCheckHash:    &hash,
			ConfirmedNotDuplicate: o.Confirm,
		}
		if err := st.Orders.Create(ctx, created); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &SubmitResult{Order: created, Warnings: warnings, Queued: true}

	// The order is durable from here on. A failed enqueue leaves it pending
	// rather than rolling anything back.
	if err := s.queue.EnqueueGeneration(ctx, created.ID); err != nil {
		log.Warn().Err(err).Str("order_id", created.ID.String()).
			Msg("order committed but generation enqueue failed")
		res.Queued = false
	}

	s.publish(ctx, messaging.EventOrderCreated, messaging.OrderCreatedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventOrderCreated),
		Data: messaging.OrderCreatedData{
			OrderID:        created.ID.String(),
			PatientID:      created.PatientID.String(),
			ProviderID:     created.ProviderID.String(),
			MedicationName: created.MedicationName,
			Source:         source,
			Queued:         res.Queued,
			WarningsCount:  len(warnings),
			CreatedAt:      created.CreatedAt,
		},
	})

	return res, nil
}

func (s *Service) resolveProvider(ctx context.Context, st Stores, o *intake.CanonicalOrder, result *dedup.FullResult) (*provider.Provider, error) {
	if existing := result.ExistingProvider(); existing != nil {
		return existing, nil
	}

	p := &provider.Provider{NPI: o.Provider.NPI, Name: o.Provider.Name}
	if err := st.Providers.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) resolvePatient(ctx context.Context, st Stores, o *intake.CanonicalOrder, result *dedup.FullResult) (*patient.Patient, error) {
	if existing := result.ExistingPatient(); existing != nil {
		if existing.DOB == nil && o.Patient.DOB != "" {
			if err := st.Patients.BackfillDOB(ctx, existing.ID, o.Patient.DOB); err != nil {
				return nil, err
			}
			existing.DOB = &o.Patient.DOB
		}
		return existing, nil
	}

	p := &patient.Patient{
		MRN:                  o.Patient.MRN,
		FirstName:            o.Patient.FirstName,
		LastName:             o.Patient.LastName,
		PrimaryDiagnosisCode: o.PrimaryDiagnosis,
	}
	if o.Patient.DOB != "" {
		p.DOB = &o.Patient.DOB
	}
	if err := st.Patients.Create(ctx, p); err != nil {
		return nil, err
	}

	if o.PrimaryDiagnosis != "" {
		d := &patient.Diagnosis{PatientID: p.ID, ICD10Code: o.PrimaryDiagnosis, IsPrimary: true}
		if err := st.Patients.AddDiagnosis(ctx, d); err != nil {
			return nil, err
		}
	}
	for _, code := range o.AdditionalDiagnoses {
		d := &patient.Diagnosis{PatientID: p.ID, ICD10Code: code}
		if err := st.Patients.AddDiagnosis(ctx, d); err != nil {
			return nil, err
		}
	}
	for _, med := range o.MedicationHistory {
		m := &patient.MedicationEntry{PatientID: p.ID, MedicationName: med}
		if err := st.Patients.AddMedicationEntry(ctx, m); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Status returns the order with its care-plan availability.
func (s *Service) Status(ctx context.Context, id uuid.UUID) (*StatusResult, error) {
	var res StatusResult
	err := s.tx.InTx(ctx, func(st Stores) error {
		o, err := st.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		res.Order = o

		_, err = st.CarePlans.GetByOrderID(ctx, id)
		switch {
		case err == nil:
			res.HasPlan = true
		case errors.Is(err, careplan.ErrNotFound):
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// PlanDetail returns the order and its completed care plan. It returns
// ErrPlanNotReady while generation has not produced one.
func (s *Service) PlanDetail(ctx context.Context, id uuid.UUID) (*Order, *careplan.CarePlan, error) {
	var o *Order
	var cp *careplan.CarePlan
	err := s.tx.InTx(ctx, func(st Stores) error {
		var err error
		o, err = st.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		cp, err = st.CarePlans.GetByOrderID(ctx, id)
		if errors.Is(err, careplan.ErrNotFound) {
			return ErrPlanNotReady
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return o, cp, nil
}

// PlanFile renders the care-plan document for download and returns its
// filename and content.
func (s *Service) PlanFile(ctx context.Context, id uuid.UUID) (string, string, error) {
	var filename, content string
	err := s.tx.InTx(ctx, func(st Stores) error {
		o, err := st.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		cp, err := st.CarePlans.GetByOrderID(ctx, id)
		if errors.Is(err, careplan.ErrNotFound) {
			return ErrPlanNotReady
		}
		if err != nil {
			return err
		}
		pat, err := st.Patients.GetByID(ctx, o.PatientID)
		if err != nil {
			return err
		}
		prov, err := st.Providers.GetByID(ctx, o.ProviderID)
		if err != nil {
			return err
		}

		generatedAt := cp.CreatedAt
		if cp.GeneratedAt != nil {
			generatedAt = *cp.GeneratedAt
		}
		content = careplan.RenderDocument(careplan.DocumentInfo{
			PatientName:      pat.FullName(),
			PatientMRN:       pat.MRN,
			PrimaryDiagnosis: o.PrimaryDiagnosis,
			MedicationName:   o.MedicationName,
			ProviderName:     prov.Name,
			ProviderNPI:      prov.NPI,
			GeneratedAt:      generatedAt,
		}, cp.Content)
		filename = careplan.Filename(pat.MRN, generatedAt)
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return filename, content, nil
}

// Reset returns a failed order to pending, discards any stale care plan,
// and re-enqueues generation. Orders in any other state are rejected.
func (s *Service) Reset(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o *Order
	err := s.tx.InTx(ctx, func(st Stores) error {
		var err error
		o, err = st.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o.Status != StatusFailed {
			return ErrNotResettable
		}
		if err := st.CarePlans.DeleteByOrderID(ctx, id); err != nil {
			return err
		}
		if err := st.Orders.ResetToPending(ctx, id); err != nil {
			return err
		}
		o.Status = StatusPending
		o.ErrorMessage = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	queued := true
	if err := s.queue.EnqueueGeneration(ctx, id); err != nil {
		log.Warn().Err(err).Str("order_id", id.String()).
			Msg("order reset but generation enqueue failed")
		queued = false
	}

	s.publish(ctx, messaging.EventOrderReset, messaging.OrderResetEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventOrderReset),
		Data: messaging.OrderResetData{
			OrderID: id.String(),
			Queued:  queued,
			ResetAt: s.now().UTC(),
		},
	})
	return o, nil
}

// List returns recent orders, optionally filtered by lifecycle state.
func (s *Service) List(ctx context.Context, status Status, page pagination.Params) ([]Order, pagination.Meta, error) {
	if status != "" && !status.Valid() {
		return nil, pagination.Meta{}, &ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}
	page.Validate()

	var orders []Order
	var total int
	err := s.tx.InTx(ctx, func(st Stores) error {
		var err error
		if total, err = st.Orders.Count(ctx, status); err != nil {
			return err
		}
		orders, err = st.Orders.List(ctx, status, page.Limit, page.Offset())
		return err
	})
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, page.CalculateMeta(total), nil
}

func (s *Service) publish(ctx context.Context, routingKey string, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish event")
	}
}

func duplicateHash(mrn, npi, medication string) string {
	sum := sha256.Sum256([]byte(mrn + "|" + npi + "|" + strings.ToLower(strings.TrimSpace(medication))))
	return hex.EncodeToString(sum[:])
}
