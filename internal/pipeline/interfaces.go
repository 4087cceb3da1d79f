package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/ledger-sync/internal/staleness"
)

// Step represents a single stage of one account's import.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *AccountState) error
}

// RunHistory is what the importer needs from the run ledger.
// This interface enables mocking and testing of history persistence.
type RunHistory interface {
	staleness.History
	RunID() string
	RecordRun(ctx context.Context, account string, success bool, ts time.Time, count *int) error
}
