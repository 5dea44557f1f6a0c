package careplan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pharmetrix/careplan-service/internal/db"
)

// ErrNotFound is returned when an order has no care plan.
var ErrNotFound = errors.New("care plan not found")

type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

func (r *Repository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*CarePlan, error) {
	query := `
		SELECT id, order_id, content, file_path, file_format,
		       llm_model, llm_prompt_tokens, llm_completion_tokens, generation_time_ms,
		       generated_at, is_uploaded, created_at
		FROM care_plans
		WHERE order_id = $1
	`

	var cp CarePlan
	var filePath, model sql.NullString
	var promptTokens, completionTokens, generationTime sql.NullInt64
	var generatedAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, orderID).Scan(
		&cp.ID, &cp.OrderID, &cp.Content, &filePath, &cp.FileFormat,
		&model, &promptTokens, &completionTokens, &generationTime,
		&generatedAt, &cp.IsUploaded, &cp.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query care plan: %w", err)
	}

	if filePath.Valid {
		cp.FilePath = &filePath.String
	}
	if model.Valid {
		cp.Model = &model.String
	}
	if promptTokens.Valid {
		v := int(promptTokens.Int64)
		cp.PromptTokens = &v
	}
	if completionTokens.Valid {
		v := int(completionTokens.Int64)
		cp.CompletionTokens = &v
	}
	if generationTime.Valid {
		v := int(generationTime.Int64)
		cp.GenerationTimeMS = &v
	}
	if generatedAt.Valid {
		cp.GeneratedAt = &generatedAt.Time
	}
	return &cp, nil
}

func (r *Repository) Create(ctx context.Context, cp *CarePlan) error {
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.FileFormat == "" {
		cp.FileFormat = "txt"
	}
	cp.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO care_plans
		(id, order_id, content, file_path, file_format,
		 llm_model, llm_prompt_tokens, llm_completion_tokens, generation_time_ms,
		 generated_at, is_uploaded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		cp.ID, cp.OrderID, cp.Content, cp.FilePath, cp.FileFormat,
		cp.Model, cp.PromptTokens, cp.CompletionTokens, cp.GenerationTimeMS,
		cp.GeneratedAt, cp.IsUploaded, cp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert care plan: %w", err)
	}
	return nil
}

// DeleteByOrderID removes an order's care plan so a replacement can be
// created without violating the one-plan-per-order constraint.
func (r *Repository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM care_plans WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("failed to delete care plan: %w", err)
	}
	return nil
}

// SetFilePath records where the rendered document was stored.
func (r *Repository) SetFilePath(ctx context.Context, id uuid.UUID, filePath string) error {
	if _, err := r.q.ExecContext(ctx, `UPDATE care_plans SET file_path = $2 WHERE id = $1`, id, filePath); err != nil {
		return fmt.Errorf("failed to set care plan file path: %w", err)
	}
	return nil
}
