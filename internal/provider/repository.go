package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pharmetrix/careplan-service/internal/db"
)

// ErrNotFound is returned when no provider matches the lookup key.
var ErrNotFound = errors.New("provider not found")

// ErrNPITaken is returned when the NPI unique constraint rejects an insert.
// It is the last line of defense behind the transactional duplicate check.
var ErrNPITaken = errors.New("NPI is already registered")

type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

func (r *Repository) GetByNPI(ctx context.Context, npi string) (*Provider, error) {
	query := `
		SELECT id, npi, name, COALESCE(phone, ''), COALESCE(fax, ''), created_at
		FROM providers
		WHERE npi = $1
	`

	var p Provider
	err := r.q.QueryRowContext(ctx, query, npi).Scan(
		&p.ID, &p.NPI, &p.Name, &p.Phone, &p.Fax, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query provider by NPI: %w", err)
	}
	return &p, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	query := `
		SELECT id, npi, name, COALESCE(phone, ''), COALESCE(fax, ''), created_at
		FROM providers
		WHERE id = $1
	`

	var p Provider
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.NPI, &p.Name, &p.Phone, &p.Fax, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query provider by id: %w", err)
	}
	return &p, nil
}

// likeEscaper neutralizes LIKE metacharacters so name fragments match
// literally. Postgres treats backslash as the default LIKE escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// FindByNameWord finds providers whose name contains the given word,
// case-insensitively, excluding the given NPI.
func (r *Repository) FindByNameWord(ctx context.Context, word string, excludeNPI string, limit int) ([]Provider, error) {
	query := `
		SELECT id, npi, name, COALESCE(phone, ''), COALESCE(fax, ''), created_at
		FROM providers
		WHERE lower(name) LIKE '%' || lower($1) || '%' AND npi <> $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.q.QueryContext(ctx, query, escapeLike(word), excludeNPI, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers by name: %w", err)
	}
	defer rows.Close()

	var providers []Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.NPI, &p.Name, &p.Phone, &p.Fax, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (r *Repository) Create(ctx context.Context, p *Provider) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO providers (id, npi, name, phone, fax, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`

	_, err := r.q.ExecContext(ctx, query, p.ID, p.NPI, p.Name, p.Phone, p.Fax, p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrNPITaken, p.NPI)
		}
		return fmt.Errorf("failed to insert provider: %w", err)
	}
	return nil
}
