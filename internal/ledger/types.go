package ledger

import (
	"errors"
	"fmt"

	"github.com/dvloznov/ledger-sync/internal/domain"
)

// Transaction is the ledger's transaction submission shape.
type Transaction struct {
	AccountID string `json:"account_id"`
	Date      string `json:"date"`
	Amount    int64  `json:"amount"`
	PayeeName string `json:"payee_name"`
	Memo      string `json:"memo"`
	Cleared   string `json:"cleared"`
	Approved  bool   `json:"approved"`
	ImportID  string `json:"import_id"`
}

// TransactionsPayload is the request body of a batch submission.
type TransactionsPayload struct {
	Transactions []Transaction `json:"transactions"`
}

// CreateResult summarises an accepted batch.
type CreateResult struct {
	// New is the number of transactions the ledger had not seen before.
	New int
	// DuplicateImportIDs lists keys the ledger already had.
	DuplicateImportIDs []string
}

// Account is a ledger account.
type Account struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Closed  bool   `json:"closed"`
	Deleted bool   `json:"deleted"`
}

// RejectedError is returned when the ledger answers without the expected
// success shape. Body holds the raw response for diagnosis.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("ledger rejected request (status %d): %s", e.StatusCode, e.Body)
}

// Is makes errors.Is(err, domain.ErrLedgerRejected) true.
func (e *RejectedError) Is(target error) bool {
	return target == domain.ErrLedgerRejected
}

// IsRejected reports whether err is a ledger rejection.
func IsRejected(err error) bool {
	return errors.Is(err, domain.ErrLedgerRejected)
}
