package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions.
// Repositories called with the ctx passed to fn join the transaction; if fn
// returns an error every write made through that ctx is rolled back.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
