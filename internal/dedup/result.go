// Package dedup implements duplicate and conflict detection for incoming
// orders: three independent detectors (provider, patient, order) plus a
// composition step that aggregates their outcomes into one decision.
package dedup

// Warning codes surfaced to callers. Blocking codes can never be overridden;
// ActionRequired warnings are overridable by resubmitting with confirm=true.
const (
	CodeProviderExists      = "PROVIDER_EXISTS"
	CodeProviderNPIConflict = "PROVIDER_NPI_CONFLICT"
	CodeProviderSimilarName = "PROVIDER_SIMILAR_NAME"

	CodePatientExists            = "PATIENT_EXISTS"
	CodePatientNameMismatch      = "PATIENT_NAME_MISMATCH"
	CodePatientDOBMismatch       = "PATIENT_DOB_MISMATCH"
	CodePatientPossibleDuplicate = "PATIENT_POSSIBLE_DUPLICATE"
	CodePatientSimilarName       = "PATIENT_SIMILAR_NAME"

	CodeOrderDuplicateSameDay   = "ORDER_DUPLICATE_SAME_DAY"
	CodeOrderPossibleDuplicate  = "ORDER_POSSIBLE_DUPLICATE"
	CodeOrderDuplicateConfirmed = "ORDER_DUPLICATE_CONFIRMED"
)

// Warning carries a machine-readable code, a human-readable message, whether
// the caller must act before proceeding, and structured data to act on.
type Warning struct {
	Code           string         `json:"code"`
	Message        string         `json:"message"`
	ActionRequired bool           `json:"action_required"`
	Data           map[string]any `json:"data,omitempty"`
}

// CheckResult is the outcome of one detector.
type CheckResult struct {
	IsDuplicate          bool
	IsPotentialDuplicate bool
	ShouldBlock          bool
	// ExistingRecord holds the matched *provider.Provider, *patient.Patient,
	// or *OrderRef depending on the detector that produced the result.
	ExistingRecord any
	Warnings       []Warning
}

// FullResult aggregates the three detector outcomes. Order is nil when the
// order check was skipped (blocked provider or unpersisted patient).
type FullResult struct {
	Provider *CheckResult
	Patient  *CheckResult
	Order    *CheckResult
}

// HasBlockingIssues reports whether any detector produced a hard conflict.
func (r *FullResult) HasBlockingIssues() bool {
	for _, cr := range []*CheckResult{r.Provider, r.Patient, r.Order} {
		if cr != nil && cr.ShouldBlock {
			return true
		}
	}
	return false
}

// RequiresConfirmation reports whether any non-blocking detector produced an
// ActionRequired warning. Blocking results are excluded: they surface through
// HasBlockingIssues and cannot be confirmed away.
func (r *FullResult) RequiresConfirmation() bool {
	needs := func(cr *CheckResult) bool {
		if cr == nil || cr.ShouldBlock {
			return false
		}
		for _, w := range cr.Warnings {
			if w.ActionRequired {
				return true
			}
		}
		return false
	}
	return needs(r.Provider) || needs(r.Patient) || needs(r.Order)
}

// AllWarnings concatenates warnings in provider, patient, order sequence so
// clients see a deterministic display order.
func (r *FullResult) AllWarnings() []Warning {
	warnings := []Warning{}
	for _, cr := range []*CheckResult{r.Provider, r.Patient, r.Order} {
		if cr != nil {
			warnings = append(warnings, cr.Warnings...)
		}
	}
	return warnings
}
