package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every care-plan generation call.
const SystemPrompt = "You are a clinical pharmacist creating care plans for specialty pharmacy patients. " +
	"Be specific and clinically relevant to the medication and diagnoses provided."

// PromptInput carries the patient, provider, and clinical fields the prompt
// is assembled from.
type PromptInput struct {
	PatientFirstName    string
	PatientLastName     string
	PatientMRN          string
	PatientDOB          string
	PatientSex          string
	PatientWeightKG     *float64
	PatientAllergies    string
	ProviderName        string
	ProviderNPI         string
	MedicationName      string
	PrimaryDiagnosis    string
	AdditionalDiagnoses []string
	MedicationHistory   []string
	PatientRecords      string
}

// BuildPrompt renders the generation prompt for one order.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("Patient Information:\n")
	fmt.Fprintf(&b, "- Name: %s %s\n", in.PatientFirstName, in.PatientLastName)
	fmt.Fprintf(&b, "- MRN: %s\n", in.PatientMRN)
	fmt.Fprintf(&b, "- Date of Birth: %s\n", orNone(in.PatientDOB))
	if in.PatientSex != "" {
		fmt.Fprintf(&b, "- Sex: %s\n", in.PatientSex)
	}
	if in.PatientWeightKG != nil {
		fmt.Fprintf(&b, "- Weight: %.1f kg\n", *in.PatientWeightKG)
	}
	fmt.Fprintf(&b, "- Allergies: %s\n", orNone(in.PatientAllergies))

	fmt.Fprintf(&b, "\nProvider: %s (NPI: %s)\n", in.ProviderName, in.ProviderNPI)
	fmt.Fprintf(&b, "\nMedication: %s\n", in.MedicationName)
	fmt.Fprintf(&b, "Primary Diagnosis (ICD-10): %s\n", orNone(in.PrimaryDiagnosis))
	fmt.Fprintf(&b, "Additional Diagnoses: %s\n", orNone(strings.Join(in.AdditionalDiagnoses, ", ")))
	fmt.Fprintf(&b, "Medication History: %s\n", orNone(strings.Join(in.MedicationHistory, ", ")))
	fmt.Fprintf(&b, "Patient Records/Notes: %s\n", orNoneProvided(in.PatientRecords))

	b.WriteString(`
Please generate a comprehensive pharmaceutical care plan with EXACTLY these four sections:

1. **Problem List / Drug Therapy Problems (DTPs)**
   - Identify potential drug therapy problems related to the prescribed medication and diagnoses

2. **Goals (SMART format)**
   - Specific, Measurable, Achievable, Relevant, Time-bound goals for this patient

3. **Pharmacist Interventions / Plan**
   - Specific actions the pharmacist should take
   - Patient education points
   - Coordination with the prescribing provider

4. **Monitoring Plan & Lab Schedule**
   - Labs to monitor and frequency
   - Clinical parameters to track
   - Follow-up schedule
`)

	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func orNoneProvided(s string) string {
	if s == "" {
		return "None provided"
	}
	return s
}
