package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
)

// RunRepository defines the operations on the extraction_runs table.
// This interface enables mocking and testing of history persistence.
type RunRepository interface {
	InsertRuns(ctx context.Context, rows []*ExtractionRunRow) error
	ListRuns(ctx context.Context) ([]*ExtractionRunRow, error)
}

// BigQueryRunRepository is the concrete implementation of RunRepository
// that interacts with BigQuery. It holds a shared BigQuery client to avoid
// creating a new connection for each operation.
type BigQueryRunRepository struct {
	client *bigquery.Client
	ref    TableRef
}

// NewBigQueryRunRepository creates a new instance of BigQueryRunRepository
// with a shared BigQuery client.
func NewBigQueryRunRepository(ctx context.Context, ref TableRef, opts ...option.ClientOption) (*BigQueryRunRepository, error) {
	if ref.ProjectID == "" || ref.DatasetID == "" {
		return nil, fmt.Errorf("NewBigQueryRunRepository: project and dataset are required")
	}
	client, err := bigquery.NewClient(ctx, ref.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRunRepository: creating client: %w", err)
	}
	return &BigQueryRunRepository{
		client: client,
		ref:    ref,
	}, nil
}

// Close closes the BigQuery client connection. This should be called when
// the repository is no longer needed to release resources.
func (r *BigQueryRunRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertRuns delegates to InsertRunsWithClient with the shared client.
func (r *BigQueryRunRepository) InsertRuns(ctx context.Context, rows []*ExtractionRunRow) error {
	return InsertRunsWithClient(ctx, r.client, r.ref, rows)
}

// ListRuns delegates to ListRunsWithClient with the shared client.
func (r *BigQueryRunRepository) ListRuns(ctx context.Context) ([]*ExtractionRunRow, error) {
	return ListRunsWithClient(ctx, r.client, r.ref)
}
