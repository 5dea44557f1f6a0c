package llm

import "context"

// MockBackend returns a canned care plan. Used in tests and local
// development when no API key is configured.
type MockBackend struct{}

var _ Backend = (*MockBackend)(nil)

func (MockBackend) Generate(ctx context.Context, prompt, systemPrompt string) (*Response, error) {
	return &Response{
		Content: "# Mock Care Plan\n\n" +
			"## Problem List / Drug Therapy Problems\n- Mock problem\n\n" +
			"## Goals\n- Mock goal\n\n" +
			"## Pharmacist Interventions / Plan\n- Mock intervention\n\n" +
			"## Monitoring Plan & Lab Schedule\n- Mock monitoring step\n",
		Model:            "mock-model",
		PromptTokens:     100,
		CompletionTokens: 50,
		GenerationTimeMS: 1,
	}, nil
}
