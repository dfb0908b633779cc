package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// LedgerFunc receives product and sale repositories bound to one transaction.
type LedgerFunc func(products ProductRepository, sales SaleRepository) error

// TxRunner runs stock and sale writes atomically.
type TxRunner interface {
	RunInTx(ctx context.Context, fn LedgerFunc) error
}

type sqlTxRunner struct {
	db *sql.DB
}

func NewTxRunner(db *sql.DB) TxRunner {
	return &sqlTxRunner{db: db}
}

// RunInTx begins a transaction, runs fn with transaction-bound repositories
// and commits only when fn succeeds.
func (r *sqlTxRunner) RunInTx(ctx context.Context, fn LedgerFunc) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(NewProductRepository(tx), NewSaleRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
