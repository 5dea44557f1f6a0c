package dedup

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/pharmetrix/careplan-service/internal/provider"
)

// TestProviderCheck_SameNPISameName verifies the existing record is reused.
func TestProviderCheck_SameNPISameName(t *testing.T) {
	existing := &provider.Provider{ID: uuid.New(), NPI: "1234567890", Name: "Dr. Alice Wong"}
	lookup := &mockProviderLookup{
		getByNPIFunc: func(ctx context.Context, npi string) (*provider.Provider, error) {
			return existing, nil
		},
	}

	result, err := NewProviderDetector(lookup).Check(context.Background(), "1234567890", "dr.  alice   WONG")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !result.IsDuplicate || result.ShouldBlock {
		t.Errorf("Expected reusable duplicate, got %+v", result)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Code != CodeProviderExists {
		t.Errorf("Expected PROVIDER_EXISTS warning, got %+v", result.Warnings)
	}
	if result.Warnings[0].ActionRequired {
		t.Error("PROVIDER_EXISTS must be informational")
	}
	if result.ExistingRecord != existing {
		t.Error("Expected existing record carried in result")
	}
}

// TestProviderCheck_NPIConflict verifies the rebinding block.
func TestProviderCheck_NPIConflict(t *testing.T) {
	lookup := &mockProviderLookup{
		getByNPIFunc: func(ctx context.Context, npi string) (*provider.Provider, error) {
			return &provider.Provider{ID: uuid.New(), NPI: npi, Name: "Dr. Alice Wong"}, nil
		},
	}

	result, err := NewProviderDetector(lookup).Check(context.Background(), "1234567890", "Dr. Bob Chen")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !result.ShouldBlock {
		t.Fatal("Expected NPI rebinding to block")
	}
	if result.Warnings[0].Code != CodeProviderNPIConflict {
		t.Errorf("Expected PROVIDER_NPI_CONFLICT, got %s", result.Warnings[0].Code)
	}
}

// TestProviderCheck_SimilarName verifies the informational similar-name hit.
func TestProviderCheck_SimilarName(t *testing.T) {
	lookup := &mockProviderLookup{
		findByNameWordFunc: func(ctx context.Context, word, excludeNPI string, limit int) ([]provider.Provider, error) {
			if word != "dr." {
				t.Errorf("Expected first normalized word 'dr.', got %q", word)
			}
			return []provider.Provider{{NPI: "9999999999", Name: "Dr. Alicia Wong"}}, nil
		},
	}

	result, err := NewProviderDetector(lookup).Check(context.Background(), "1234567890", "Dr. Alice Wong")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.IsDuplicate || result.ShouldBlock {
		t.Errorf("Similar name must not be a duplicate or block, got %+v", result)
	}
	if !result.IsPotentialDuplicate {
		t.Error("Expected potential duplicate flag")
	}
	if result.Warnings[0].Code != CodeProviderSimilarName || result.Warnings[0].ActionRequired {
		t.Errorf("Expected informational PROVIDER_SIMILAR_NAME, got %+v", result.Warnings[0])
	}
}

// TestProviderCheck_NoMatch verifies a clean result for a new provider.
func TestProviderCheck_NoMatch(t *testing.T) {
	result, err := NewProviderDetector(&mockProviderLookup{}).Check(context.Background(), "1234567890", "Dr. New Person")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.IsDuplicate || result.IsPotentialDuplicate || result.ShouldBlock || len(result.Warnings) != 0 {
		t.Errorf("Expected clean result, got %+v", result)
	}
}
