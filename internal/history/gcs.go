package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/gcs"
	"github.com/dvloznov/ledger-sync/internal/logger"
)

// gcsAppendAttempts bounds retries after losing a conditional-write race.
const gcsAppendAttempts = 3

// GCSStore keeps history as a JSON array in a single Cloud Storage object.
type GCSStore struct {
	objects gcs.ObjectStore
	bucket  string
	object  string
}

// NewGCSStore returns a store for gs://bucket/object.
func NewGCSStore(objects gcs.ObjectStore, bucket, object string) *GCSStore {
	return &GCSStore{objects: objects, bucket: bucket, object: object}
}

// Load reads the object. A missing object is an empty history.
func (s *GCSStore) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	data, _, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return decodeEntries(data)
}

func (s *GCSStore) read(ctx context.Context) ([]byte, int64, error) {
	data, generation, err := s.objects.Read(ctx, s.bucket, s.object)
	if err != nil {
		if errors.Is(err, gcs.ErrNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	return data, generation, nil
}

// Append re-reads the object, appends entries and writes it back only if
// nobody else changed it in between. An unparseable object is copied
// aside before a fresh history is started.
func (s *GCSStore) Append(ctx context.Context, entries ...domain.HistoryEntry) error {
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= gcsAppendAttempts; attempt++ {
		data, generation, err := s.read(ctx)
		if err != nil {
			return err
		}

		current, err := decodeEntries(data)
		if err != nil {
			backup := s.object + ".corrupt"
			if backupErr := s.objects.Write(ctx, s.bucket, backup, data, 0); backupErr != nil && !errors.Is(backupErr, gcs.ErrPreconditionFailed) {
				return fmt.Errorf("history unreadable and could not be copied aside: %w", errors.Join(err, backupErr))
			}
			log.Warn().
				Err(err).
				Str("object", s.object).
				Str("backup", backup).
				Msg("History object was unreadable, starting a new one")
			current = nil
		}

		out, err := encodeEntries(append(current, entries...))
		if err != nil {
			return err
		}

		err = s.objects.Write(ctx, s.bucket, s.object, out, generation)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gcs.ErrPreconditionFailed) {
			return err
		}
		lastErr = err
		log.Debug().Int("attempt", attempt).Msg("History object changed concurrently, retrying")
	}

	return fmt.Errorf("append history after %d attempts: %w", gcsAppendAttempts, lastErr)
}
