// Package storage binds the domain repositories to a Postgres connection
// and runs them inside transactions.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pharmetrix/careplan-service/internal/careplan"
	"github.com/pharmetrix/careplan-service/internal/db"
	"github.com/pharmetrix/careplan-service/internal/order"
	"github.com/pharmetrix/careplan-service/internal/patient"
	"github.com/pharmetrix/careplan-service/internal/provider"
)

// PG runs store operations against a Postgres pool.
type PG struct {
	db *sql.DB
}

var _ order.TxRunner = (*PG)(nil)

func NewPG(db *sql.DB) *PG {
	return &PG{db: db}
}

func stores(q db.Querier) order.Stores {
	return order.Stores{
		Providers: provider.NewRepository(q),
		Patients:  patient.NewRepository(q),
		Orders:    order.NewRepository(q),
		CarePlans: careplan.NewRepository(q),
	}
}

// InTx runs fn against transaction-scoped stores. A serialization conflict
// between concurrent submissions surfaces as a unique-constraint error from
// the repositories, which fn propagates to roll back.
func (p *PG) InTx(ctx context.Context, fn func(order.Stores) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(stores(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Stores returns repositories bound to the pool, for callers that do not
// need transactional scope.
func (p *PG) Stores() order.Stores {
	return stores(p.db)
}
