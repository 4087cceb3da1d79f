package history

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/ledger-sync/internal/domain"
	infrabq "github.com/dvloznov/ledger-sync/internal/infra/bigquery"
)

// BigQueryStore keeps history in the extraction_runs table.
type BigQueryStore struct {
	repo infrabq.RunRepository
}

// NewBigQueryStore wraps a run repository.
func NewBigQueryStore(repo infrabq.RunRepository) *BigQueryStore {
	return &BigQueryStore{repo: repo}
}

// Load reads every run row.
func (s *BigQueryStore) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := s.repo.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	entries := make([]domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		e := domain.HistoryEntry{
			Title:   row.Account,
			Date:    row.RunTS,
			Success: row.Success,
			RunID:   row.RunID,
		}
		if row.TransactionCount.Valid {
			n := int(row.TransactionCount.Int64)
			e.Amount = &n
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Append inserts one row per entry.
func (s *BigQueryStore) Append(ctx context.Context, entries ...domain.HistoryEntry) error {
	rows := make([]*infrabq.ExtractionRunRow, 0, len(entries))
	for _, e := range entries {
		row := &infrabq.ExtractionRunRow{
			RunID:   e.RunID,
			Account: e.Title,
			RunTS:   e.Date,
			Success: e.Success,
		}
		if e.Amount != nil {
			row.TransactionCount = bigquery.NullInt64{Int64: int64(*e.Amount), Valid: true}
		}
		rows = append(rows, row)
	}

	if err := s.repo.InsertRuns(ctx, rows); err != nil {
		return fmt.Errorf("insert runs: %w", err)
	}
	return nil
}
