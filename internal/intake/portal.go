package intake

import "encoding/json"

// PortalAdapter handles the in-house web portal feed. The payload already
// matches the canonical shape, so transform is field extraction plus
// defaulting of the optional lists.
type PortalAdapter struct{}

type portalPayload struct {
	Patient struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		MRN       string `json:"mrn"`
		DOB       string `json:"dob"`
	} `json:"patient"`
	Provider struct {
		Name string `json:"name"`
		NPI  string `json:"npi"`
	} `json:"provider"`
	MedicationName      string   `json:"medication_name"`
	PrimaryDiagnosis    string   `json:"primary_diagnosis"`
	AdditionalDiagnoses []string `json:"additional_diagnoses"`
	MedicationHistory   []string `json:"medication_history"`
	PatientRecords      string   `json:"patient_records"`
	Confirm             bool     `json:"confirm"`
}

func (PortalAdapter) Source() string { return "portal" }

func (a PortalAdapter) Parse(raw []byte) (any, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, &AdapterError{Source: a.Source(), Reason: "payload must be valid JSON: " + err.Error()}
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, &AdapterError{Source: a.Source(), Reason: "payload must be a JSON object"}
	}

	var p portalPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &AdapterError{Source: a.Source(), Reason: "unexpected payload structure: " + err.Error()}
	}
	return &p, nil
}

func (a PortalAdapter) Transform(parsed any) (*CanonicalOrder, error) {
	p, ok := parsed.(*portalPayload)
	if !ok {
		return nil, &AdapterError{Source: a.Source(), Reason: "transform received unparsed input"}
	}

	order := &CanonicalOrder{
		MedicationName:      p.MedicationName,
		PrimaryDiagnosis:    p.PrimaryDiagnosis,
		AdditionalDiagnoses: p.AdditionalDiagnoses,
		MedicationHistory:   p.MedicationHistory,
		PatientRecords:      p.PatientRecords,
		Confirm:             p.Confirm,
	}
	order.Patient = CanonicalPatient{
		FirstName: p.Patient.FirstName,
		LastName:  p.Patient.LastName,
		MRN:       p.Patient.MRN,
		DOB:       p.Patient.DOB,
	}
	order.Provider = CanonicalProvider{Name: p.Provider.Name, NPI: p.Provider.NPI}

	if order.AdditionalDiagnoses == nil {
		order.AdditionalDiagnoses = []string{}
	}
	if order.MedicationHistory == nil {
		order.MedicationHistory = []string{}
	}
	return order, nil
}
