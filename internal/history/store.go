// Package history keeps the append-only record of extraction runs and
// answers "when did this account last succeed" queries over it.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/ledger-sync/internal/domain"
)

// Store persists history entries. Implementations only ever append.
type Store interface {
	Load(ctx context.Context) ([]domain.HistoryEntry, error)
	Append(ctx context.Context, entries ...domain.HistoryEntry) error
}

// decodeEntries parses a JSON array of entries. Empty input is an empty history.
func decodeEntries(data []byte) ([]domain.HistoryEntry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var entries []domain.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return entries, nil
}

func encodeEntries(entries []domain.HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	return data, nil
}

// unavailableStore stands in for a backend that could not be opened.
type unavailableStore struct {
	err error
}

// Unavailable returns a Store that fails every call with err. Open turns the
// failed load into an empty history and RecordRun reports each failed append,
// so an import still runs against it.
func Unavailable(err error) Store {
	return unavailableStore{err: err}
}

func (s unavailableStore) Load(context.Context) ([]domain.HistoryEntry, error) {
	return nil, fmt.Errorf("history store unavailable: %w", s.err)
}

func (s unavailableStore) Append(context.Context, ...domain.HistoryEntry) error {
	return fmt.Errorf("history store unavailable: %w", s.err)
}
