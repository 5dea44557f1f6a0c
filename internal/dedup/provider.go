package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pharmetrix/careplan-service/internal/provider"
)

// ProviderDetector detects duplicate providers by NPI and name similarity.
type ProviderDetector struct {
	providers ProviderLookup
}

func NewProviderDetector(providers ProviderLookup) *ProviderDetector {
	return &ProviderDetector{providers: providers}
}

// Check applies the provider rules:
//   - same NPI, same name → reuse existing (informational)
//   - same NPI, different name → hard block, never overridable
//   - similar name, different NPI → potential duplicate (informational)
func (d *ProviderDetector) Check(ctx context.Context, npi, name string) (*CheckResult, error) {
	existing, err := d.providers.GetByNPI(ctx, npi)
	if err != nil && !errors.Is(err, provider.ErrNotFound) {
		return nil, fmt.Errorf("provider duplicate check failed: %w", err)
	}

	if existing != nil {
		if normalizeName(existing.Name) == normalizeName(name) {
			return &CheckResult{
				IsDuplicate:    true,
				ExistingRecord: existing,
				Warnings: []Warning{{
					Code:    CodeProviderExists,
					Message: fmt.Sprintf("Provider with NPI %s already exists. Using existing record.", npi),
				}},
			}, nil
		}

		// An NPI bound to one name can never silently rebind to another.
		return &CheckResult{
			IsDuplicate:    true,
			ShouldBlock:    true,
			ExistingRecord: existing,
			Warnings: []Warning{{
				Code: CodeProviderNPIConflict,
				Message: fmt.Sprintf(
					"NPI %s is already registered to %q. Cannot register same NPI to %q. Please verify the NPI.",
					npi, existing.Name, name,
				),
				ActionRequired: true,
				Data:           map[string]any{"existing_name": existing.Name},
			}},
		}, nil
	}

	words := strings.Fields(normalizeName(name))
	if len(words) == 0 {
		return &CheckResult{}, nil
	}

	similar, err := d.providers.FindByNameWord(ctx, words[0], npi, 5)
	if err != nil {
		return nil, fmt.Errorf("provider similar-name check failed: %w", err)
	}
	if len(similar) == 0 {
		return &CheckResult{}, nil
	}

	matches := make([]map[string]any, 0, len(similar))
	for _, p := range similar {
		matches = append(matches, map[string]any{"npi": p.NPI, "name": p.Name})
	}
	return &CheckResult{
		IsPotentialDuplicate: true,
		Warnings: []Warning{{
			Code: CodeProviderSimilarName,
			Message: fmt.Sprintf(
				"Found %d provider(s) with similar names. Please verify this is a new provider.",
				len(similar),
			),
			Data: map[string]any{"similar_providers": matches},
		}},
	}, nil
}

// normalizeName lower-cases and collapses all whitespace runs.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
