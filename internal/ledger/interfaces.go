package ledger

import (
	"context"
)

// Service defines the calls made against the remote ledger.
// This interface enables mocking and testing of ledger operations.
type Service interface {
	// CreateTransactions submits a batch. The ledger dedupes by
	// (account_id, import_id) and reports which transactions were new.
	CreateTransactions(ctx context.Context, txns []Transaction) (*CreateResult, error)

	// ListAccounts returns the accounts of the configured budget.
	ListAccounts(ctx context.Context) ([]Account, error)
}
