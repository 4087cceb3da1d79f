package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dvloznov/ledger-sync/internal/domain"
)

// Dir reads input files from a local directory.
type Dir struct {
	Path string
}

// NewDir returns a source for path.
func NewDir(path string) *Dir {
	return &Dir{Path: path}
}

// Load reads every .json, .ofx and .qfx file directly under the directory.
func (d *Dir) Load(ctx context.Context) (map[string][]domain.RawTransaction, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make(map[string][]domain.RawTransaction)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := accountName(name); !ok {
			continue
		}

		data, err := os.ReadFile(filepath.Join(d.Path, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		account, records, err := decodeFile(ctx, name, data)
		if err != nil {
			return nil, err
		}
		out[account] = append(out[account], records...)
	}
	return out, nil
}
