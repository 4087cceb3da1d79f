package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/logger"
)

// FileStore keeps history as a JSON array in a local file.
type FileStore struct {
	Path string
	now  func() time.Time
}

// NewFileStore returns a store backed by path. The file need not exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path, now: time.Now}
}

// Load reads the whole history. A missing file is an empty history; other
// errors are returned for the caller to handle.
func (s *FileStore) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return decodeEntries(data)
}

// Append re-reads the file, appends entries and writes the result atomically.
// An unparseable file is moved aside before a fresh history is started.
func (s *FileStore) Append(ctx context.Context, entries ...domain.HistoryEntry) error {
	log := logger.FromContext(ctx)

	current, err := s.Load(ctx)
	if err != nil {
		backup := fmt.Sprintf("%s.corrupt-%d", s.Path, s.now().Unix())
		if renameErr := os.Rename(s.Path, backup); renameErr != nil {
			return fmt.Errorf("history unreadable and could not be moved aside: %w", errors.Join(err, renameErr))
		}
		log.Warn().
			Err(err).
			Str("path", s.Path).
			Str("backup", backup).
			Msg("History file was unreadable, starting a new one")
		current = nil
	}

	return s.write(append(current, entries...))
}

// write uses the atomic write pattern: temp file, then rename.
func (s *FileStore) write(entries []domain.HistoryEntry) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := encodeEntries(entries)
	if err != nil {
		return err
	}

	tempFile := s.Path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, s.Path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
