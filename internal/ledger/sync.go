package ledger

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/logger"
)

// SubmitTransactions maps and submits one account's batch in a single call.
// An empty batch makes no request.
func SubmitTransactions(ctx context.Context, svc Service, txs []domain.CanonicalTransaction) (*CreateResult, error) {
	log := logger.FromContext(ctx)

	if len(txs) == 0 {
		log.Debug().Msg("No transactions to submit")
		return &CreateResult{}, nil
	}

	result, err := svc.CreateTransactions(ctx, ToLedgerTransactions(txs))
	if err != nil {
		return nil, fmt.Errorf("SubmitTransactions: %w", err)
	}

	log.Info().
		Int("submitted", len(txs)).
		Int("new", result.New).
		Int("duplicates", len(result.DuplicateImportIDs)).
		Msg("Submitted transactions to ledger")

	return result, nil
}
