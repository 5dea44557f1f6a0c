package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pharmetrix/careplan-service/internal/db"
)

// ErrNotFound is returned when no patient matches the lookup key.
var ErrNotFound = errors.New("patient not found")

// ErrMRNTaken is returned when the MRN unique constraint rejects an insert.
// It is the last line of defense behind the transactional duplicate check.
var ErrMRNTaken = errors.New("MRN is already registered")

type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

const patientColumns = `
	id, mrn, first_name, last_name,
	to_char(date_of_birth, 'YYYY-MM-DD'), sex, weight_kg, allergies,
	COALESCE(primary_diagnosis_code, ''), primary_diagnosis_description,
	created_at, updated_at
`

func (r *Repository) scanPatient(row interface{ Scan(...any) error }) (*Patient, error) {
	var p Patient
	var dob, sex, allergies, diagDesc sql.NullString
	var weight sql.NullFloat64
	var updatedAt sql.NullTime

	err := row.Scan(
		&p.ID, &p.MRN, &p.FirstName, &p.LastName,
		&dob, &sex, &weight, &allergies,
		&p.PrimaryDiagnosisCode, &diagDesc,
		&p.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dob.Valid {
		p.DOB = &dob.String
	}
	if sex.Valid {
		p.Sex = &sex.String
	}
	if weight.Valid {
		p.WeightKG = &weight.Float64
	}
	if allergies.Valid {
		p.Allergies = &allergies.String
	}
	if diagDesc.Valid {
		p.PrimaryDiagnosisDescription = &diagDesc.String
	}
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	return &p, nil
}

func (r *Repository) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE mrn = $1`

	p, err := r.scanPatient(r.q.QueryRowContext(ctx, query, mrn))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query patient by MRN: %w", err)
	}
	return p, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	p, err := r.scanPatient(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query patient by id: %w", err)
	}
	return p, nil
}

// FindByNameDOB finds a patient with the same name (case-insensitive) and
// date of birth under a different MRN. Returns nil when there is none.
func (r *Repository) FindByNameDOB(ctx context.Context, firstName, lastName, dob string, excludeMRN string) (*Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE lower(first_name) = lower($1)
		  AND lower(last_name) = lower($2)
		  AND date_of_birth = $3::date
		  AND mrn <> $4
		ORDER BY created_at ASC
		LIMIT 1
	`

	p, err := r.scanPatient(r.q.QueryRowContext(ctx, query, firstName, lastName, dob, excludeMRN))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query patient by name and DOB: %w", err)
	}
	return p, nil
}

// FindByName finds patients with the same name (case-insensitive) under a
// different MRN.
func (r *Repository) FindByName(ctx context.Context, firstName, lastName string, excludeMRN string, limit int) ([]Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE lower(first_name) = lower($1)
		  AND lower(last_name) = lower($2)
		  AND mrn <> $3
		ORDER BY created_at ASC
		LIMIT $4
	`

	rows, err := r.q.QueryContext(ctx, query, firstName, lastName, excludeMRN, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients by name: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, *p)
	}
	return patients, rows.Err()
}

func (r *Repository) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO patients
		(id, mrn, first_name, last_name, date_of_birth, sex, weight_kg, allergies,
		 primary_diagnosis_code, primary_diagnosis_description, created_at)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10, $11)
	`

	var dob any
	if p.DOB != nil && *p.DOB != "" {
		dob = *p.DOB
	}

	_, err := r.q.ExecContext(ctx, query,
		p.ID, p.MRN, p.FirstName, p.LastName, dob, p.Sex, p.WeightKG, p.Allergies,
		p.PrimaryDiagnosisCode, p.PrimaryDiagnosisDescription, p.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrMRNTaken, p.MRN)
		}
		return fmt.Errorf("failed to insert patient: %w", err)
	}
	return nil
}

// BackfillDOB sets the date of birth only while the stored value is null.
// Populated demographics are never overwritten by later intakes.
func (r *Repository) BackfillDOB(ctx context.Context, id uuid.UUID, dob string) error {
	query := `
		UPDATE patients
		SET date_of_birth = $2::date, updated_at = now()
		WHERE id = $1 AND date_of_birth IS NULL
	`

	if _, err := r.q.ExecContext(ctx, query, id, dob); err != nil {
		return fmt.Errorf("failed to backfill patient DOB: %w", err)
	}
	return nil
}

func (r *Repository) AddDiagnosis(ctx context.Context, d *Diagnosis) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO patient_diagnoses (id, patient_id, icd10_code, description, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query, d.ID, d.PatientID, d.ICD10Code, d.Description, d.IsPrimary, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert patient diagnosis: %w", err)
	}
	return nil
}

func (r *Repository) ListDiagnoses(ctx context.Context, patientID uuid.UUID) ([]Diagnosis, error) {
	query := `
		SELECT id, patient_id, icd10_code, description, is_primary, created_at
		FROM patient_diagnoses
		WHERE patient_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query patient diagnoses: %w", err)
	}
	defer rows.Close()

	var diagnoses []Diagnosis
	for rows.Next() {
		var d Diagnosis
		var desc sql.NullString
		if err := rows.Scan(&d.ID, &d.PatientID, &d.ICD10Code, &desc, &d.IsPrimary, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan patient diagnosis: %w", err)
		}
		if desc.Valid {
			d.Description = &desc.String
		}
		diagnoses = append(diagnoses, d)
	}
	return diagnoses, rows.Err()
}

func (r *Repository) AddMedicationEntry(ctx context.Context, m *MedicationEntry) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO medication_history (id, patient_id, medication_name, dosage, frequency, is_current, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query, m.ID, m.PatientID, m.MedicationName, m.Dosage, m.Frequency, m.IsCurrent, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert medication history entry: %w", err)
	}
	return nil
}

func (r *Repository) ListMedicationHistory(ctx context.Context, patientID uuid.UUID) ([]MedicationEntry, error) {
	query := `
		SELECT id, patient_id, medication_name, dosage, frequency, is_current, created_at
		FROM medication_history
		WHERE patient_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query medication history: %w", err)
	}
	defer rows.Close()

	var entries []MedicationEntry
	for rows.Next() {
		var m MedicationEntry
		var dosage, frequency sql.NullString
		if err := rows.Scan(&m.ID, &m.PatientID, &m.MedicationName, &dosage, &frequency, &m.IsCurrent, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan medication history entry: %w", err)
		}
		if dosage.Valid {
			m.Dosage = &dosage.String
		}
		if frequency.Valid {
			m.Frequency = &frequency.String
		}
		entries = append(entries, m)
	}
	return entries, rows.Err()
}
