package intake

import (
	"encoding/xml"
	"fmt"
)

// PharmaLinkAdapter handles the pharmacy network's XML feed. Scalar fields are
// extracted by element path, the repeated OtherDiagCodes/Code element collects
// into the secondary-diagnosis list, and the MM-DD-YYYY date of birth is
// reformatted by character position.
type PharmaLinkAdapter struct{}

type pharmaLinkPayload struct {
	XMLName xml.Name
	Patient struct {
		GivenName    string `xml:"GivenName"`
		SurName      string `xml:"SurName"`
		MedRecordNum string `xml:"MedRecordNum"`
		DateOfBirth  string `xml:"DateOfBirth"`
	} `xml:"Patient"`
	Prescriber struct {
		FullName           string `xml:"FullName"`
		NationalProviderID string `xml:"NationalProviderId"`
	} `xml:"Prescriber"`
	ClinicalInfo struct {
		DrugName        string   `xml:"DrugName"`
		PrimaryDiagCode string   `xml:"PrimaryDiagCode"`
		OtherDiagCodes  []string `xml:"OtherDiagCodes>Code"`
	} `xml:"ClinicalInfo"`
}

func (PharmaLinkAdapter) Source() string { return "pharmalink" }

func (a PharmaLinkAdapter) Parse(raw []byte) (any, error) {
	var p pharmaLinkPayload
	if err := xml.Unmarshal(raw, &p); err != nil {
		return nil, &AdapterError{Source: a.Source(), Reason: "payload must be valid XML: " + err.Error()}
	}
	return &p, nil
}

func (a PharmaLinkAdapter) Transform(parsed any) (*CanonicalOrder, error) {
	p, ok := parsed.(*pharmaLinkPayload)
	if !ok {
		return nil, &AdapterError{Source: a.Source(), Reason: "transform received unparsed input"}
	}

	diags := []string{}
	for _, code := range p.ClinicalInfo.OtherDiagCodes {
		if code != "" {
			diags = append(diags, code)
		}
	}

	// The confirm flag has no representation in this feed, so a resubmission
	// after a soft-conflict warning must come through another source.
	return &CanonicalOrder{
		Patient: CanonicalPatient{
			FirstName: p.Patient.GivenName,
			LastName:  p.Patient.SurName,
			MRN:       p.Patient.MedRecordNum,
			DOB:       reformatUSDate(p.Patient.DateOfBirth),
		},
		Provider: CanonicalProvider{
			Name: p.Prescriber.FullName,
			NPI:  p.Prescriber.NationalProviderID,
		},
		MedicationName:      p.ClinicalInfo.DrugName,
		PrimaryDiagnosis:    p.ClinicalInfo.PrimaryDiagCode,
		AdditionalDiagnoses: diags,
		MedicationHistory:   []string{},
	}, nil
}

// reformatUSDate turns "MM-DD-YYYY" into "YYYY-MM-DD" by position. Anything
// that is not exactly ten characters comes back empty rather than mangled.
func reformatUSDate(raw string) string {
	if len(raw) != 10 {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", raw[6:10], raw[0:2], raw[3:5])
}
