package careplan

import (
	"time"

	"github.com/google/uuid"
)

// CarePlan is the generated clinical document for an order. Each order owns
// at most one; regeneration deletes the prior instance first.
type CarePlan struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
	Content string    `json:"content"`

	// Stored-file reference; empty until the best-effort file write succeeds.
	FilePath   *string `json:"file_path,omitempty"`
	FileFormat string  `json:"file_format"`

	// Generation metadata for cost tracking.
	Model            *string `json:"model,omitempty"`
	PromptTokens     *int    `json:"prompt_tokens,omitempty"`
	CompletionTokens *int    `json:"completion_tokens,omitempty"`
	GenerationTimeMS *int    `json:"generation_time_ms,omitempty"`

	GeneratedAt *time.Time `json:"generated_at,omitempty"`

	// IsUploaded distinguishes manually supplied content from generated.
	IsUploaded bool      `json:"is_uploaded"`
	CreatedAt  time.Time `json:"created_at"`
}
