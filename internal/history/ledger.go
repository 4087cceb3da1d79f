package history

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/logger"
)

// Ledger is the in-memory view of the run history plus the store it is
// persisted to. It is not safe for concurrent use.
type Ledger struct {
	store   Store
	runID   string
	entries []domain.HistoryEntry
}

// Open loads the history from store. Load failures are logged and produce
// an empty history so that a broken store never blocks an import.
func Open(ctx context.Context, store Store) *Ledger {
	log := logger.FromContext(ctx)

	entries, err := store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not load run history, starting from empty history")
		entries = nil
	}

	return &Ledger{
		store:   store,
		runID:   uuid.NewString(),
		entries: entries,
	}
}

// RunID identifies the process run that this ledger records entries for.
func (l *Ledger) RunID() string {
	return l.runID
}

// RecordRun appends one entry for account and persists it. The entry is
// kept in memory even when persisting fails; the error is returned so the
// caller can log it.
func (l *Ledger) RecordRun(ctx context.Context, account string, success bool, ts time.Time, count *int) error {
	entry := domain.HistoryEntry{
		Title:   account,
		Date:    ts,
		Success: success,
		Amount:  count,
		RunID:   l.runID,
	}
	l.entries = append(l.entries, entry)

	log := logger.FromContext(ctx)
	log.Debug().
		Str("account", account).
		Bool("success", success).
		Time("ts", ts).
		Msg("Recorded run")

	return l.store.Append(ctx, entry)
}

// LastSuccessful returns the newest successful entry for account.
func (l *Ledger) LastSuccessful(account string) (domain.HistoryEntry, bool) {
	var (
		last  domain.HistoryEntry
		found bool
	)
	for _, e := range l.entries {
		if e.Title != account || !e.Success {
			continue
		}
		if !found || e.Date.After(last.Date) {
			last = e
			found = true
		}
	}
	return last, found
}

// Entries returns every entry, newest first.
func (l *Ledger) Entries() []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	sortNewestFirst(out)
	return out
}

// ForAccount returns the entries of one account, newest first.
func (l *Ledger) ForAccount(account string) []domain.HistoryEntry {
	var out []domain.HistoryEntry
	for _, e := range l.entries {
		if e.Title == account {
			out = append(out, e)
		}
	}
	sortNewestFirst(out)
	return out
}

// Accounts returns the distinct account titles present in the history,
// sorted by name.
func (l *Ledger) Accounts() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range l.entries {
		if _, ok := seen[e.Title]; ok {
			continue
		}
		seen[e.Title] = struct{}{}
		out = append(out, e.Title)
	}
	sort.Strings(out)
	return out
}

func sortNewestFirst(entries []domain.HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
}
