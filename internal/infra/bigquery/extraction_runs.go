package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// ExtractionRunRow is one row of the extraction_runs table. Each import
// attempt for an account writes exactly one row.
type ExtractionRunRow struct {
	RunID   string    `bigquery:"run_id"`  // REQUIRED
	Account string    `bigquery:"account"` // REQUIRED
	RunTS   time.Time `bigquery:"run_ts"`  // REQUIRED
	Success bool      `bigquery:"success"` // REQUIRED

	TransactionCount bigquery.NullInt64 `bigquery:"transaction_count"` // NULLABLE
}
