package careplan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DocumentInfo carries the header fields for the rendered care-plan file.
type DocumentInfo struct {
	PatientName      string
	PatientMRN       string
	PrimaryDiagnosis string
	MedicationName   string
	ProviderName     string
	ProviderNPI      string
	GeneratedAt      time.Time
}

const rule = "================================================================================"

// RenderDocument formats the care-plan content with its header block.
func RenderDocument(info DocumentInfo, content string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\nPHARMACIST CARE PLAN\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Generated: %s\n\n", info.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	b.WriteString("PATIENT INFORMATION\n-------------------\n")
	fmt.Fprintf(&b, "Name: %s\n", info.PatientName)
	fmt.Fprintf(&b, "MRN: %s\n", info.PatientMRN)
	fmt.Fprintf(&b, "Primary Diagnosis: %s\n", info.PrimaryDiagnosis)
	fmt.Fprintf(&b, "Medication: %s\n\n", info.MedicationName)
	b.WriteString("REFERRING PROVIDER\n------------------\n")
	fmt.Fprintf(&b, "Name: %s\n", info.ProviderName)
	fmt.Fprintf(&b, "NPI: %s\n\n", info.ProviderNPI)
	fmt.Fprintf(&b, "%s\nCARE PLAN CONTENT\n%s\n\n", rule, rule)
	b.WriteString(content)
	b.WriteString("\n")

	return b.String()
}

// Filename builds the download filename for a care plan.
func Filename(mrn string, generatedAt time.Time) string {
	return fmt.Sprintf("care_plan_%s_%s.txt", mrn, generatedAt.UTC().Format("20060102_150405"))
}

// WriteFile persists the rendered document under dir and returns the path.
// Callers treat failures as best-effort: the content is already durable in
// the care_plans row.
func WriteFile(dir, mrn string, rendered string, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create care plan storage dir: %w", err)
	}

	path := filepath.Join(dir, Filename(mrn, generatedAt))
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("failed to write care plan file: %w", err)
	}
	return path, nil
}
