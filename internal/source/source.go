// Package source loads raw scraped transactions, one input file per account.
package source

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/gcs"
	"github.com/dvloznov/ledger-sync/internal/logger"
)

// Source yields the raw transactions of every account found in the input,
// keyed by account name.
type Source interface {
	Load(ctx context.Context) (map[string][]domain.RawTransaction, error)
}

// New picks a source for dataDir: a gs:// URI reads through objects, anything
// else is a local directory.
func New(dataDir string, objects gcs.ObjectStore) (Source, error) {
	if !gcs.IsURI(dataDir) {
		return NewDir(dataDir), nil
	}
	if objects == nil {
		return nil, fmt.Errorf("data dir %s needs a storage client", dataDir)
	}
	bucket, prefix, err := gcs.ParseURI(dataDir)
	if err != nil {
		return nil, err
	}
	return NewGCS(objects, bucket, prefix), nil
}

// accountName strips the extension from a file name. The second result is
// false for files that are not input files.
func accountName(name string) (string, bool) {
	base := path.Base(name)
	if strings.HasPrefix(base, ".") {
		return "", false
	}
	ext := strings.ToLower(path.Ext(base))
	switch ext {
	case ".json", ".ofx", ".qfx":
		return strings.TrimSuffix(base, path.Ext(base)), true
	default:
		return "", false
	}
}

// decodeFile parses one input file according to its extension.
func decodeFile(ctx context.Context, name string, data []byte) (string, []domain.RawTransaction, error) {
	account, ok := accountName(name)
	if !ok {
		return "", nil, nil
	}

	var (
		records []domain.RawTransaction
		err     error
	)
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		records, err = decodeJSON(account, data)
	default:
		records, err = decodeOFX(ctx, account, data)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", name, err)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("file", name).
		Str("account", account).
		Int("records", len(records)).
		Msg("Loaded input file")

	return account, records, nil
}
