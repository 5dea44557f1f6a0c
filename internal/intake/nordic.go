package intake

import "strings"

// NordicAdapter handles the Nordic clinics' delimited plain-text feed:
//
//	PATIENT|Sven|Svensson|889900|1985/12/31
//	DOCTOR|Dr. Erik|7788990011
//	ORDER|Ibuprofen|M10.9|M12.0;M15.3|CONFIRMED
//
// Records are newline-separated, fields pipe-delimited, and the record-type
// tag selects the mapping. A literal CONFIRMED token (case-insensitive) in the
// last ORDER field maps to Confirm=true.
type NordicAdapter struct{}

func (NordicAdapter) Source() string { return "nordic" }

func (a NordicAdapter) Parse(raw []byte) (any, error) {
	lines := []string{}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, &AdapterError{Source: a.Source(), Reason: "payload contains no records"}
	}
	return lines, nil
}

func (a NordicAdapter) Transform(parsed any) (*CanonicalOrder, error) {
	lines, ok := parsed.([]string)
	if !ok {
		return nil, &AdapterError{Source: a.Source(), Reason: "transform received unparsed input"}
	}

	order := &CanonicalOrder{
		AdditionalDiagnoses: []string{},
		MedicationHistory:   []string{},
	}

	for _, line := range lines {
		parts := strings.Split(line, "|")

		switch parts[0] {
		case "PATIENT":
			if len(parts) < 5 {
				continue
			}
			order.Patient.FirstName = parts[1]
			order.Patient.LastName = parts[2]
			order.Patient.MRN = parts[3]
			order.Patient.DOB = strings.ReplaceAll(parts[4], "/", "-")

		case "DOCTOR":
			if len(parts) < 3 {
				continue
			}
			order.Provider.Name = parts[1]
			order.Provider.NPI = parts[2]

		case "ORDER":
			if len(parts) < 5 {
				continue
			}
			order.MedicationName = parts[1]
			order.PrimaryDiagnosis = parts[2]
			if parts[3] != "" {
				for _, diag := range strings.Split(parts[3], ";") {
					order.AdditionalDiagnoses = append(order.AdditionalDiagnoses, strings.TrimSpace(diag))
				}
			}
			order.Confirm = strings.EqualFold(strings.TrimSpace(parts[4]), "CONFIRMED")
		}
	}

	return order, nil
}
