// Package worker runs asynchronous care-plan generation: it claims pending
// orders, calls the LLM backend with retries, and records the terminal
// outcome on the order.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pharmetrix/careplan-service/internal/careplan"
	"github.com/pharmetrix/careplan-service/internal/llm"
	"github.com/pharmetrix/careplan-service/internal/messaging"
	"github.com/pharmetrix/careplan-service/internal/order"
	"github.com/pharmetrix/careplan-service/internal/patient"
	"github.com/pharmetrix/careplan-service/internal/provider"
)

// maxErrorMessageLen caps the failure message persisted on the order.
const maxErrorMessageLen = 1000

// OrderStore is the order access generation needs.
type OrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
}

// PatientStore is the patient access generation needs.
type PatientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// ProviderStore is the provider access generation needs.
type ProviderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error)
}

// PlanStore is the care-plan access generation needs.
type PlanStore interface {
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*careplan.CarePlan, error)
	Create(ctx context.Context, cp *careplan.CarePlan) error
	SetFilePath(ctx context.Context, id uuid.UUID, filePath string) error
}

// EventPublisher emits lifecycle events. A nil publisher disables events.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// GenerationMetrics records generation runs. A nil recorder disables metrics.
type GenerationMetrics interface {
	RecordGeneration(ctx context.Context, outcome string, attempts int, durationMs float64, tokens int)
}

// Outcome classifies one processing run.
type Outcome string

const (
	OutcomeCompleted     Outcome = "completed"
	OutcomeFailed        Outcome = "failed"
	OutcomeNotFound      Outcome = "not_found"
	OutcomeAlreadyExists Outcome = "already_exists"
	OutcomeInProgress    Outcome = "in_progress"
)

// TaskResult summarizes one processing run for logging and tests.
type TaskResult struct {
	OrderID  uuid.UUID
	Outcome  Outcome
	Attempts int
	Error    string
}

// Generator produces care plans for claimed orders.
type Generator struct {
	orders    OrderStore
	patients  PatientStore
	providers ProviderStore
	plans     PlanStore
	backend   llm.Backend
	events    EventPublisher
	metrics   GenerationMetrics

	// FileDir is where rendered documents are written; empty disables file
	// output. MaxAttempts bounds LLM calls per run.
	FileDir     string
	MaxAttempts int

	now func() time.Time
}

func NewGenerator(orders OrderStore, patients PatientStore, providers ProviderStore, plans PlanStore, backend llm.Backend, events EventPublisher) *Generator {
	return &Generator{
		orders:      orders,
		patients:    patients,
		providers:   providers,
		plans:       plans,
		backend:     backend,
		events:      events,
		MaxAttempts: 3,
		now:         time.Now,
	}
}

// WithClock pins the generator clock for tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithMetrics attaches a generation outcome recorder.
func (g *Generator) WithMetrics(m GenerationMetrics) *Generator {
	g.metrics = m
	return g
}

// Process runs one generation attempt cycle for an order. Deleted orders are
// no-ops, an order that already has a plan only gets its status reconciled,
// and a failed claim means another worker holds the order. Every path returns
// a result; the error is reserved for infrastructure faults worth
// redelivering.
func (g *Generator) Process(ctx context.Context, orderID uuid.UUID) (*TaskResult, error) {
	res := &TaskResult{OrderID: orderID}

	o, err := g.orders.GetByID(ctx, orderID)
	if errors.Is(err, order.ErrNotFound) {
		log.Warn().Str("order_id", orderID.String()).Msg("generation requested for missing order")
		res.Outcome = OutcomeNotFound
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := g.plans.GetByOrderID(ctx, orderID); err == nil {
		if err := g.reconcileCompleted(ctx, o); err != nil {
			return nil, err
		}
		res.Outcome = OutcomeAlreadyExists
		return res, nil
	} else if !errors.Is(err, careplan.ErrNotFound) {
		return nil, err
	}

	claimed, err := g.orders.Claim(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		res.Outcome = OutcomeInProgress
		return res, nil
	}

	start := time.Now()

	pat, err := g.patients.GetByID(ctx, o.PatientID)
	if err != nil {
		return g.fail(ctx, res, start, fmt.Errorf("failed to load patient for order: %w", err))
	}
	prov, err := g.providers.GetByID(ctx, o.ProviderID)
	if err != nil {
		return g.fail(ctx, res, start, fmt.Errorf("failed to load provider for order: %w", err))
	}
	prompt := buildPrompt(o, pat, prov)

	resp, attempts, err := g.generate(ctx, prompt)
	res.Attempts = attempts
	if err != nil {
		return g.fail(ctx, res, start, err)
	}

	generatedAt := g.now().UTC()
	cp := &careplan.CarePlan{
		OrderID:          orderID,
		Content:          resp.Content,
		Model:            &resp.Model,
		PromptTokens:     &resp.PromptTokens,
		CompletionTokens: &resp.CompletionTokens,
		GenerationTimeMS: &resp.GenerationTimeMS,
		GeneratedAt:      &generatedAt,
	}
	if err := g.plans.Create(ctx, cp); err != nil {
		return g.fail(ctx, res, start, err)
	}
	if err := g.orders.MarkCompleted(ctx, orderID); err != nil {
		return nil, err
	}

	g.writeFile(ctx, o, cp, pat, prov)

	log.Info().Str("order_id", orderID.String()).Int("attempts", attempts).
		Str("model", resp.Model).Int("tokens", resp.TotalTokens()).
		Msg("care plan generated")
	g.publish(ctx, messaging.EventOrderCompleted, messaging.OrderCompletedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventOrderCompleted),
		Data: messaging.OrderCompletedData{
			OrderID:     orderID.String(),
			Model:       resp.Model,
			Attempts:    attempts,
			CompletedAt: generatedAt,
		},
	})
	g.record(ctx, string(OutcomeCompleted), attempts, start, resp.TotalTokens())

	res.Outcome = OutcomeCompleted
	return res, nil
}

// reconcileCompleted settles an order whose plan is durable but whose status
// never reached completed, which happens when a worker dies between the plan
// insert and the status update. Pending and failed orders are re-claimed
// first so the completed transition stays CAS-guarded.
func (g *Generator) reconcileCompleted(ctx context.Context, o *order.Order) error {
	if o.Status == order.StatusCompleted {
		return nil
	}
	if o.Status != order.StatusProcessing {
		claimed, err := g.orders.Claim(ctx, o.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}
	}
	if err := g.orders.MarkCompleted(ctx, o.ID); err != nil {
		return err
	}
	log.Warn().Str("order_id", o.ID.String()).Str("status", string(o.Status)).
		Msg("order already had a care plan, status reconciled to completed")
	return nil
}

func buildPrompt(o *order.Order, pat *patient.Patient, prov *provider.Provider) string {
	in := llm.PromptInput{
		PatientFirstName:    pat.FirstName,
		PatientLastName:     pat.LastName,
		PatientMRN:          pat.MRN,
		PatientWeightKG:     pat.WeightKG,
		ProviderName:        prov.Name,
		ProviderNPI:         prov.NPI,
		MedicationName:      o.MedicationName,
		PrimaryDiagnosis:    o.PrimaryDiagnosis,
		AdditionalDiagnoses: o.AdditionalDiagnoses,
		MedicationHistory:   o.MedicationHistory,
		PatientRecords:      o.PatientRecords,
	}
	if pat.DOB != nil {
		in.PatientDOB = *pat.DOB
	}
	if pat.Sex != nil {
		in.PatientSex = *pat.Sex
	}
	if pat.Allergies != nil {
		in.PatientAllergies = *pat.Allergies
	}
	return llm.BuildPrompt(in)
}

// generate calls the backend with exponential backoff, up to MaxAttempts
// calls total.
func (g *Generator) generate(ctx context.Context, prompt string) (*llm.Response, int, error) {
	attempts := 0
	var resp *llm.Response

	operation := func() error {
		attempts++
		var err error
		resp, err = g.backend.Generate(ctx, prompt, llm.SystemPrompt)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempts).Msg("care plan generation attempt failed")
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(g.MaxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, attempts, err
	}
	return resp, attempts, nil
}

// fail records the terminal failure on the order. The message is truncated
// so provider stack traces do not blow up the column.
func (g *Generator) fail(ctx context.Context, res *TaskResult, start time.Time, cause error) (*TaskResult, error) {
	msg := cause.Error()
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	if err := g.orders.MarkFailed(ctx, res.OrderID, msg); err != nil {
		return nil, err
	}

	log.Error().Str("order_id", res.OrderID.String()).Int("attempts", res.Attempts).
		Str("error", msg).Msg("care plan generation failed")
	g.publish(ctx, messaging.EventOrderFailed, messaging.OrderFailedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventOrderFailed),
		Data: messaging.OrderFailedData{
			OrderID:  res.OrderID.String(),
			Attempts: res.Attempts,
			Error:    msg,
			FailedAt: g.now().UTC(),
		},
	})
	g.record(ctx, string(OutcomeFailed), res.Attempts, start, 0)

	res.Outcome = OutcomeFailed
	res.Error = msg
	return res, nil
}

// writeFile renders the document to disk. Failures are logged only: the
// content is already durable in the care_plans row.
func (g *Generator) writeFile(ctx context.Context, o *order.Order, cp *careplan.CarePlan, pat *patient.Patient, prov *provider.Provider) {
	if g.FileDir == "" {
		return
	}

	rendered := careplan.RenderDocument(careplan.DocumentInfo{
		PatientName:      pat.FullName(),
		PatientMRN:       pat.MRN,
		PrimaryDiagnosis: o.PrimaryDiagnosis,
		MedicationName:   o.MedicationName,
		ProviderName:     prov.Name,
		ProviderNPI:      prov.NPI,
		GeneratedAt:      *cp.GeneratedAt,
	}, cp.Content)

	path, err := careplan.WriteFile(g.FileDir, pat.MRN, rendered, *cp.GeneratedAt)
	if err != nil {
		log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("failed to write care plan file")
		return
	}
	if err := g.plans.SetFilePath(ctx, cp.ID, path); err != nil {
		log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("failed to record care plan file path")
	}
}

func (g *Generator) record(ctx context.Context, outcome string, attempts int, start time.Time, tokens int) {
	if g.metrics == nil {
		return
	}
	g.metrics.RecordGeneration(ctx, outcome, attempts, float64(time.Since(start).Milliseconds()), tokens)
}

func (g *Generator) publish(ctx context.Context, routingKey string, event any) {
	if g.events == nil {
		return
	}
	if err := g.events.Publish(ctx, routingKey, event); err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish event")
	}
}
