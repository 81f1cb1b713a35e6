package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions
type TransactionManager interface {
	// ExecTx executes a function within a read-write transaction
	ExecTx(ctx context.Context, fn TxFn) error

	// ExecSnapshot executes a function within a read-only repeatable-read
	// transaction, so every query inside sees the same point in time.
	ExecSnapshot(ctx context.Context, fn TxFn) error
}
