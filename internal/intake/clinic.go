package intake

import (
	"encoding/json"
	"strings"
)

// ClinicAdapter handles the clinic network feed: flat JSON with abbreviated
// field names, a comma-delimited medication-history string, and "is_confirmed"
// in place of the canonical confirm flag.
type ClinicAdapter struct{}

type clinicPayload struct {
	PtFirstName string `json:"pt_fname"`
	PtLastName  string `json:"pt_lname"`
	PtIDNum     string `json:"pt_id_num"`
	BirthDate   string `json:"birth_date"`
	DocName     string `json:"doc_name"`
	DocNPI      string `json:"doc_npi"`
	Drug        string `json:"drug"`
	MainICD10   string `json:"main_icd10"`
	PastMeds    string `json:"past_meds"`
	IsConfirmed bool   `json:"is_confirmed"`
}

func (ClinicAdapter) Source() string { return "clinic" }

func (a ClinicAdapter) Parse(raw []byte) (any, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, &AdapterError{Source: a.Source(), Reason: "payload must be valid JSON: " + err.Error()}
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, &AdapterError{Source: a.Source(), Reason: "payload must be a JSON object"}
	}

	var p clinicPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &AdapterError{Source: a.Source(), Reason: "unexpected payload structure: " + err.Error()}
	}
	return &p, nil
}

func (a ClinicAdapter) Transform(parsed any) (*CanonicalOrder, error) {
	p, ok := parsed.(*clinicPayload)
	if !ok {
		return nil, &AdapterError{Source: a.Source(), Reason: "transform received unparsed input"}
	}

	medHistory := []string{}
	if p.PastMeds != "" {
		for _, med := range strings.Split(p.PastMeds, ",") {
			medHistory = append(medHistory, strings.TrimSpace(med))
		}
	}

	return &CanonicalOrder{
		Patient: CanonicalPatient{
			FirstName: p.PtFirstName,
			LastName:  p.PtLastName,
			MRN:       p.PtIDNum,
			DOB:       p.BirthDate,
		},
		Provider:            CanonicalProvider{Name: p.DocName, NPI: p.DocNPI},
		MedicationName:      p.Drug,
		PrimaryDiagnosis:    p.MainICD10,
		AdditionalDiagnoses: []string{},
		MedicationHistory:   medHistory,
		Confirm:             p.IsConfirmed,
	}, nil
}
