package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/ledger-sync/internal/logger"
)

// DefaultRunsTable is the table name used when none is configured.
const DefaultRunsTable = "extraction_runs"

// TableRef identifies the runs table.
type TableRef struct {
	ProjectID string
	DatasetID string
	Table     string
}

func (t TableRef) qualified() string {
	table := t.Table
	if table == "" {
		table = DefaultRunsTable
	}
	return "`" + t.ProjectID + "." + t.DatasetID + "." + table + "`"
}

// InsertRunsWithClient appends run rows using a DML insert with the provided
// BigQuery client. DML keeps rows immediately visible to the following query,
// unlike the streaming buffer.
func InsertRunsWithClient(ctx context.Context, client *bigquery.Client, ref TableRef, rows []*ExtractionRunRow) error {
	log := logger.FromContext(ctx)

	for _, row := range rows {
		q := client.Query(fmt.Sprintf(`
		INSERT INTO %s (
			run_id,
			account,
			run_ts,
			success,
			transaction_count
		)
		VALUES (
			@run_id,
			@account,
			@run_ts,
			@success,
			@transaction_count
		)
	`, ref.qualified()))

		q.Parameters = []bigquery.QueryParameter{
			{Name: "run_id", Value: row.RunID},
			{Name: "account", Value: row.Account},
			{Name: "run_ts", Value: row.RunTS},
			{Name: "success", Value: row.Success},
			{Name: "transaction_count", Value: row.TransactionCount},
		}

		job, err := q.Run(ctx)
		if err != nil {
			return fmt.Errorf("InsertRunsWithClient: running insert query: %w", err)
		}

		status, err := job.Wait(ctx)
		if err != nil {
			return fmt.Errorf("InsertRunsWithClient: waiting for job: %w", err)
		}
		if err := status.Err(); err != nil {
			return fmt.Errorf("InsertRunsWithClient: job error: %w", err)
		}

		log.Debug().
			Str("run_id", row.RunID).
			Str("account", row.Account).
			Bool("success", row.Success).
			Msg("Inserted extraction run")
	}

	return nil
}

// ListRunsWithClient retrieves every run row ordered by run time.
func ListRunsWithClient(ctx context.Context, client *bigquery.Client, ref TableRef) ([]*ExtractionRunRow, error) {
	query := fmt.Sprintf(`
		SELECT
			run_id,
			account,
			run_ts,
			success,
			transaction_count
	FROM %s
	ORDER BY run_ts ASC
	`, ref.qualified())

	q := client.Query(query)
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRunsWithClient: reading query: %w", err)
	}

	var rows []*ExtractionRunRow
	for {
		var row ExtractionRunRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRunsWithClient: iterating: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
