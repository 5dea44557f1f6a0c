// Package validate holds format checks for healthcare identifiers:
// NPI (10 digits), MRN (6 digits), and ICD-10 codes.
// These validate format only, not whether an identifier exists.
package validate

import (
	"fmt"
	"strings"
)

// NPI checks that the value is exactly ten digits.
func NPI(npi string) error {
	npi = strings.TrimSpace(npi)
	if npi == "" {
		return fmt.Errorf("NPI is required")
	}
	if len(npi) != 10 || !allDigits(npi) {
		return fmt.Errorf("NPI must be exactly 10 digits")
	}
	return nil
}

// npiChecksum verifies the Luhn check digit of a ten-digit NPI. Per the NPI
// standard the Luhn sum is computed over the identifier prefixed with the
// card-issuer constant 80840. Intake enforces format only; several partner
// feeds carry NPIs that fail the Luhn check, so this stays out of NPI.
func npiChecksum(npi string) error {
	if err := NPI(npi); err != nil {
		return err
	}
	if !luhnValid("80840" + strings.TrimSpace(npi)) {
		return fmt.Errorf("NPI checksum is invalid")
	}
	return nil
}

// MRN checks that the value is exactly six digits.
func MRN(mrn string) error {
	mrn = strings.TrimSpace(mrn)
	if mrn == "" {
		return fmt.Errorf("MRN is required")
	}
	if len(mrn) != 6 || !allDigits(mrn) {
		return fmt.Errorf("MRN must be exactly 6 digits")
	}
	return nil
}

// NormalizeMRN zero-pads an all-digit MRN to the fixed six-character width.
// Non-numeric input is returned unchanged for the format check to reject.
func NormalizeMRN(mrn string) string {
	mrn = strings.TrimSpace(mrn)
	if mrn == "" || !allDigits(mrn) || len(mrn) >= 6 {
		return mrn
	}
	return strings.Repeat("0", 6-len(mrn)) + mrn
}

// ICD10 checks the ICD-10-CM code format: a category letter (U is reserved),
// two digits, then an optional dot plus up to four alphanumerics.
func ICD10(code string) error {
	code = NormalizeICD10(code)
	if code == "" {
		return fmt.Errorf("ICD-10 code is required")
	}
	if len(code) < 3 {
		return fmt.Errorf("invalid ICD-10 code format: %s", code)
	}
	if code[0] < 'A' || code[0] > 'Z' || code[0] == 'U' {
		return fmt.Errorf("invalid ICD-10 category: %c", code[0])
	}
	if !allDigits(code[1:3]) {
		return fmt.Errorf("invalid ICD-10 code format: %s", code)
	}
	if len(code) == 3 {
		return nil
	}
	if code[3] != '.' || len(code) < 5 || len(code) > 8 {
		return fmt.Errorf("invalid ICD-10 code format: %s", code)
	}
	for _, c := range code[4:] {
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return fmt.Errorf("invalid ICD-10 code format: %s", code)
		}
	}
	return nil
}

// NormalizeICD10 upper-cases and trims an ICD-10 code.
func NormalizeICD10(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// luhnValid runs the Luhn mod-10 check over a digit string that already
// includes its check digit.
func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
