package intake

import (
	"fmt"
	"unicode/utf8"
)

// AdapterError reports a malformed or incomplete source payload. It is always
// the caller's fault and never retried.
type AdapterError struct {
	Source string
	Reason string
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("intake adapter %s: %s", e.Source, e.Reason)
}

// Adapter converts one partner source format into the canonical order shape.
// Parse and Transform vary per format; validation is shared and runs inside
// Process, which adapters must not reimplement.
type Adapter interface {
	Source() string
	Parse(raw []byte) (any, error)
	Transform(parsed any) (*CanonicalOrder, error)
}

// Process runs parse → transform → validate as one sequence.
func Process(a Adapter, raw []byte) (*CanonicalOrder, error) {
	if !utf8.Valid(raw) {
		return nil, &AdapterError{Source: a.Source(), Reason: "payload is not valid UTF-8"}
	}

	parsed, err := a.Parse(raw)
	if err != nil {
		return nil, err
	}

	order, err := a.Transform(parsed)
	if err != nil {
		return nil, err
	}

	if err := validateComplete(a.Source(), order); err != nil {
		return nil, err
	}
	return order, nil
}

// validateComplete catches adapter mapping bugs, not business-rule violations.
func validateComplete(source string, o *CanonicalOrder) error {
	switch {
	case o.Patient.FirstName == "":
		return &AdapterError{Source: source, Reason: "patient first name is missing after transform"}
	case o.Patient.MRN == "":
		return &AdapterError{Source: source, Reason: "patient MRN is missing after transform"}
	case o.Provider.NPI == "":
		return &AdapterError{Source: source, Reason: "provider NPI is missing after transform"}
	case o.MedicationName == "":
		return &AdapterError{Source: source, Reason: "medication name is missing after transform"}
	}
	return nil
}
