package dedup

import (
	"context"
	"errors"
	"fmt"

	"github.com/pharmetrix/careplan-service/internal/patient"
)

// PatientDetector detects duplicate patients by MRN and demographics.
type PatientDetector struct {
	patients PatientLookup
}

func NewPatientDetector(patients PatientLookup) *PatientDetector {
	return &PatientDetector{patients: patients}
}

// Check applies the patient rules:
//   - same MRN, same name → reuse existing (informational)
//   - same MRN, name or DOB mismatch → soft block (confirmable)
//   - same name+DOB under a different MRN → potential duplicate (confirmable)
//   - same name only under a different MRN → informational
func (d *PatientDetector) Check(ctx context.Context, mrn, firstName, lastName, dob string) (*CheckResult, error) {
	existing, err := d.patients.GetByMRN(ctx, mrn)
	if err != nil && !errors.Is(err, patient.ErrNotFound) {
		return nil, fmt.Errorf("patient duplicate check failed: %w", err)
	}

	if existing != nil {
		return d.checkMRNHit(existing, mrn, firstName, lastName, dob), nil
	}

	if dob != "" {
		match, err := d.patients.FindByNameDOB(ctx, firstName, lastName, dob, mrn)
		if err != nil {
			return nil, fmt.Errorf("patient name+DOB check failed: %w", err)
		}
		if match != nil {
			// Classic data-entry duplicate: same person, second MRN.
			return &CheckResult{
				IsPotentialDuplicate: true,
				ExistingRecord:       match,
				Warnings: []Warning{{
					Code: CodePatientPossibleDuplicate,
					Message: fmt.Sprintf(
						"A patient with the same name and date of birth exists with MRN %s. Please verify this is a different patient.",
						match.MRN,
					),
					ActionRequired: true,
					Data: map[string]any{
						"existing_mrn":  match.MRN,
						"existing_name": match.FullName(),
					},
				}},
			}, nil
		}
	}

	sameName, err := d.patients.FindByName(ctx, firstName, lastName, mrn, 5)
	if err != nil {
		return nil, fmt.Errorf("patient same-name check failed: %w", err)
	}
	if len(sameName) == 0 {
		return &CheckResult{}, nil
	}

	matches := make([]map[string]any, 0, len(sameName))
	for _, p := range sameName {
		entry := map[string]any{"mrn": p.MRN}
		if p.DOB != nil {
			entry["dob"] = *p.DOB
		}
		matches = append(matches, entry)
	}
	return &CheckResult{
		IsPotentialDuplicate: true,
		Warnings: []Warning{{
			Code: CodePatientSimilarName,
			Message: fmt.Sprintf(
				"Found %d patient(s) with the same name. Please verify this is a new patient.",
				len(sameName),
			),
			Data: map[string]any{"similar_patients": matches},
		}},
	}, nil
}

func (d *PatientDetector) checkMRNHit(existing *patient.Patient, mrn, firstName, lastName, dob string) *CheckResult {
	result := &CheckResult{
		IsDuplicate:    true,
		ExistingRecord: existing,
	}

	namesMatch := normalizeName(existing.FirstName) == normalizeName(firstName) &&
		normalizeName(existing.LastName) == normalizeName(lastName)

	if !namesMatch {
		result.Warnings = append(result.Warnings, Warning{
			Code: CodePatientNameMismatch,
			Message: fmt.Sprintf(
				"Patient MRN %s exists with name %q, but input name is %q. Please verify.",
				mrn, existing.FullName(), firstName+" "+lastName,
			),
			ActionRequired: true,
			Data:           map[string]any{"existing_name": existing.FullName()},
		})
	}

	if dob != "" && existing.DOB != nil && *existing.DOB != dob {
		result.Warnings = append(result.Warnings, Warning{
			Code: CodePatientDOBMismatch,
			Message: fmt.Sprintf(
				"Patient MRN %s exists with date of birth %s, but input is %s. Please verify.",
				mrn, *existing.DOB, dob,
			),
			ActionRequired: true,
			Data:           map[string]any{"existing_dob": *existing.DOB},
		})
	}

	if len(result.Warnings) == 0 {
		result.Warnings = append(result.Warnings, Warning{
			Code:    CodePatientExists,
			Message: fmt.Sprintf("Patient with MRN %s already exists. Using existing record.", mrn),
		})
	}
	return result
}
