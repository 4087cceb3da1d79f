package source

import (
	"encoding/json"
	"fmt"

	"github.com/dvloznov/ledger-sync/internal/domain"
)

// decodeJSON parses an array of raw transactions and validates each record
// once. Records without an account inherit the file's account.
func decodeJSON(account string, data []byte) ([]domain.RawTransaction, error) {
	var records []domain.RawTransaction
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}

	for i := range records {
		r := &records[i]
		if r.Account == "" {
			r.Account = account
		}
		if r.Account != account {
			return nil, &domain.RecordError{
				Account: account,
				Index:   i,
				Record:  *r,
				Err:     fmt.Errorf("%w: record belongs to account %q", domain.ErrInvalidRecord, r.Account),
			}
		}
		if err := r.Validate(); err != nil {
			return nil, &domain.RecordError{Account: account, Index: i, Record: *r, Err: err}
		}
	}

	return records, nil
}
