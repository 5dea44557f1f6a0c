package intake

// CanonicalPatient is the format-agnostic patient section of an intake payload.
type CanonicalPatient struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	MRN       string `json:"mrn"`
	DOB       string `json:"dob"` // YYYY-MM-DD, may be empty
}

// CanonicalProvider is the format-agnostic provider section of an intake payload.
type CanonicalProvider struct {
	Name string `json:"name"`
	NPI  string `json:"npi"`
}

// CanonicalOrder is the internal representation every source adapter converges
// on. Confirm records the caller's explicit acknowledgment that a previously
// surfaced duplicate warning should not block this submission.
type CanonicalOrder struct {
	Patient             CanonicalPatient  `json:"patient"`
	Provider            CanonicalProvider `json:"provider"`
	MedicationName      string            `json:"medication_name"`
	PrimaryDiagnosis    string            `json:"primary_diagnosis"`
	AdditionalDiagnoses []string          `json:"additional_diagnoses"`
	MedicationHistory   []string          `json:"medication_history"`
	PatientRecords      string            `json:"patient_records"`
	Confirm             bool              `json:"confirm"`
}

// Flatten projects the nested canonical shape into the flat field map used by
// downstream validation and response bodies.
func (o *CanonicalOrder) Flatten() map[string]any {
	return map[string]any{
		"patient_first_name":   o.Patient.FirstName,
		"patient_last_name":    o.Patient.LastName,
		"patient_mrn":          o.Patient.MRN,
		"patient_dob":          o.Patient.DOB,
		"provider_name":        o.Provider.Name,
		"provider_npi":         o.Provider.NPI,
		"medication_name":      o.MedicationName,
		"primary_diagnosis":    o.PrimaryDiagnosis,
		"additional_diagnoses": o.AdditionalDiagnoses,
		"medication_history":   o.MedicationHistory,
		"patient_records":      o.PatientRecords,
	}
}
