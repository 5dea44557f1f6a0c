// Package llm defines the generation backend contract and its
// implementations. The backend may fail transiently; callers own the retry
// policy.
package llm

import "context"

// Response is the standard result from any generation backend.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	GenerationTimeMS int
}

// TotalTokens returns prompt plus completion tokens.
func (r *Response) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// Backend generates text for a prompt. Implementations must honor ctx
// cancellation.
type Backend interface {
	Generate(ctx context.Context, prompt, systemPrompt string) (*Response, error)
}
