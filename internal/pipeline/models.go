package pipeline

import (
	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/importkey"
	"github.com/dvloznov/ledger-sync/internal/ledger"
	"github.com/dvloznov/ledger-sync/internal/staleness"
)

// AccountState holds the shared state across the steps of one account.
type AccountState struct {
	Name            string
	Account         domain.AccountConfig
	Configured      bool
	LedgerAccountID string
	Raw             []domain.RawTransaction
	Keys            *importkey.Scope
	Transactions    []domain.CanonicalTransaction
	Result          *ledger.CreateResult
}

// AccountResult is the outcome of one account.
type AccountResult struct {
	Account    string
	Read       int
	Submitted  int
	New        int
	Duplicates int
	Err        error
}

// Summary describes a whole run.
type Summary struct {
	RunID      string
	DryRun     bool
	Accounts   []AccountResult
	TotalNew   int
	Advisories []staleness.Advisory
	Notified   bool
}
