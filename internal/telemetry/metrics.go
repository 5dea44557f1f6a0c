package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics for the service
type Metrics struct {
	// Intake metrics
	IntakeTotal           metric.Int64Counter
	DuplicateBlocks       metric.Int64Counter
	ConfirmationsRequired metric.Int64Counter
	OrdersCreated         metric.Int64Counter

	// Generation metrics
	GenerationAttempts   metric.Int64Counter
	GenerationDurationMs metric.Float64Histogram
	GenerationTokens     metric.Int64Counter
}

// InitMetrics initializes all custom metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/pharmetrix/careplan-service")

	intakeTotal, err := meter.Int64Counter(
		"intake_requests_total",
		metric.WithDescription("Total number of intake submissions by source and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	duplicateBlocks, err := meter.Int64Counter(
		"intake_duplicate_blocks_total",
		metric.WithDescription("Total number of submissions blocked by duplicate rules"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	confirmationsRequired, err := meter.Int64Counter(
		"intake_confirmations_required_total",
		metric.WithDescription("Total number of submissions rejected pending confirmation"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	ordersCreated, err := meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders accepted"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	generationAttempts, err := meter.Int64Counter(
		"generation_attempts_total",
		metric.WithDescription("Total number of care plan generation attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	generationDurationMs, err := meter.Float64Histogram(
		"generation_duration_milliseconds",
		metric.WithDescription("Care plan generation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	generationTokens, err := meter.Int64Counter(
		"generation_tokens_total",
		metric.WithDescription("Total LLM tokens consumed by care plan generation"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		IntakeTotal:           intakeTotal,
		DuplicateBlocks:       duplicateBlocks,
		ConfirmationsRequired: confirmationsRequired,
		OrdersCreated:         ordersCreated,
		GenerationAttempts:    generationAttempts,
		GenerationDurationMs:  generationDurationMs,
		GenerationTokens:      generationTokens,
	}, nil
}

// RecordIntake records one intake submission outcome
func (m *Metrics) RecordIntake(ctx context.Context, source, outcome string) {
	m.IntakeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
	switch outcome {
	case "blocked":
		m.DuplicateBlocks.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	case "confirmation_required":
		m.ConfirmationsRequired.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	case "accepted":
		m.OrdersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	}
}

// RecordGeneration records one generation run
func (m *Metrics) RecordGeneration(ctx context.Context, outcome string, attempts int, durationMs float64, tokens int) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.GenerationAttempts.Add(ctx, int64(attempts), attrs)
	m.GenerationDurationMs.Record(ctx, durationMs, attrs)
	if tokens > 0 {
		m.GenerationTokens.Add(ctx, int64(tokens), attrs)
	}
}
