package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount means the amount could not be read as a number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrUnsupportedCurrency means a text amount is tagged with a foreign currency.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	// ErrInvalidBillingDate means a billing date is not a calendar date.
	ErrInvalidBillingDate = errors.New("invalid billing date")
	// ErrInvalidTransactionDate means a transaction date is not a calendar date.
	ErrInvalidTransactionDate = errors.New("invalid transaction date")
	// ErrInvalidRecord means a scraped record is missing required fields.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrUnknownAccount means an account has no ledger account mapping.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrLedgerRejected means the ledger answered without the expected success shape.
	ErrLedgerRejected = errors.New("ledger rejected request")
)

// RecordError ties a data error to the account and record that caused it.
type RecordError struct {
	Account string
	Index   int
	Record  RawTransaction
	Err     error
}

func (e *RecordError) Error() string {
	raw, err := json.Marshal(e.Record)
	if err != nil {
		raw = []byte(fmt.Sprintf("%+v", e.Record))
	}
	return fmt.Sprintf("account %q record %d %s: %v", e.Account, e.Index, raw, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
