package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pharmetrix/careplan-service/internal/db"
	"github.com/pharmetrix/careplan-service/internal/dedup"
)

type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

const orderColumns = `
	id, patient_id, provider_id, medication_name, COALESCE(primary_diagnosis, ''),
	additional_diagnoses, medication_history, COALESCE(patient_records, ''),
	status, error_message, duplicate_check_hash, confirmed_not_duplicate,
	created_at, updated_at
`

func (r *Repository) scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	var status string
	var errMsg, dupHash sql.NullString
	var diags, meds pq.StringArray

	err := row.Scan(
		&o.ID, &o.PatientID, &o.ProviderID, &o.MedicationName, &o.PrimaryDiagnosis,
		&diags, &meds, &o.PatientRecords,
		&status, &errMsg, &dupHash, &o.ConfirmedNotDuplicate,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = Status(status)
	o.AdditionalDiagnoses = []string(diags)
	o.MedicationHistory = []string(meds)
	if o.AdditionalDiagnoses == nil {
		o.AdditionalDiagnoses = []string{}
	}
	if o.MedicationHistory == nil {
		o.MedicationHistory = []string{}
	}
	if errMsg.Valid {
		o.ErrorMessage = &errMsg.String
	}
	if dupHash.Valid {
		o.DuplicateCheckHash = &dupHash.String
	}
	return &o, nil
}

func (r *Repository) Create(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	query := `
		INSERT INTO orders
		(id, patient_id, provider_id, medication_name, primary_diagnosis,
		 additional_diagnoses, medication_history, patient_records,
		 status, duplicate_check_hash, confirmed_not_duplicate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.ExecContext(ctx, query,
		o.ID, o.PatientID, o.ProviderID, o.MedicationName, o.PrimaryDiagnosis,
		pq.Array(o.AdditionalDiagnoses), pq.Array(o.MedicationHistory), o.PatientRecords,
		string(o.Status), o.DuplicateCheckHash, o.ConfirmedNotDuplicate, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := r.scanOrder(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	return o, nil
}

// List returns orders newest-first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status Status, limit, offset int) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// Count returns the number of orders, optionally filtered by status.
func (r *Repository) Count(ctx context.Context, status Status) (int, error) {
	query := `SELECT COUNT(*) FROM orders`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}

	var total int
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return total, nil
}

// LatestByPatientMedication returns the most recent order for the patient
// with a case-insensitive exact medication-name match, or nil when none
// exists.
func (r *Repository) LatestByPatientMedication(ctx context.Context, patientID uuid.UUID, medicationName string) (*dedup.OrderRef, error) {
	query := `
		SELECT id, status, created_at
		FROM orders
		WHERE patient_id = $1 AND lower(medication_name) = lower($2)
		ORDER BY created_at DESC
		LIMIT 1
	`

	var ref dedup.OrderRef
	err := r.q.QueryRowContext(ctx, query, patientID, medicationName).Scan(&ref.ID, &ref.Status, &ref.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest order for patient/medication: %w", err)
	}
	return &ref, nil
}

// Claim atomically moves an order from pending or failed into processing.
// The single-statement compare-and-set is what prevents two workers from
// double-claiming the same order.
func (r *Repository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'processing', error_message = NULL, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'failed')
	`

	res, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return n == 1, nil
}

// MarkCompleted finishes a processing order.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = 'completed', error_message = NULL, updated_at = now()
		WHERE id = $1 AND status = 'processing'
	`

	if _, err := r.q.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark order completed: %w", err)
	}
	return nil
}

// MarkFailed records a terminal failure with a truncated message.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE orders
		SET status = 'failed', error_message = $2, updated_at = now()
		WHERE id = $1
	`

	if _, err := r.q.ExecContext(ctx, query, id, message); err != nil {
		return fmt.Errorf("failed to mark order failed: %w", err)
	}
	return nil
}

// ReleaseStuck returns orders stuck in processing longer than maxAge to
// pending so they can be re-enqueued. A worker crash between claim and
// terminal update is the only way an order lingers there.
func (r *Repository) ReleaseStuck(ctx context.Context, maxAge time.Duration) ([]uuid.UUID, error) {
	query := `
		UPDATE orders
		SET status = 'pending', updated_at = now()
		WHERE status = 'processing' AND updated_at < now() - $1::interval
		RETURNING id
	`

	rows, err := r.q.QueryContext(ctx, query, fmt.Sprintf("%d seconds", int(maxAge.Seconds())))
	if err != nil {
		return nil, fmt.Errorf("failed to release stuck orders: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan released order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResetToPending returns a failed order to pending for regeneration.
func (r *Repository) ResetToPending(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = 'pending', error_message = NULL, updated_at = now()
		WHERE id = $1 AND status = 'failed'
	`

	res, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to reset order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reset result: %w", err)
	}
	if n == 0 {
		return ErrNotResettable
	}
	return nil
}
