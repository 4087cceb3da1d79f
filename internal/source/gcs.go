package source

import (
	"context"
	"sort"
	"strings"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/gcs"
)

// GCS reads input files stored under a Cloud Storage prefix.
type GCS struct {
	objects gcs.ObjectStore
	bucket  string
	prefix  string
}

// NewGCS returns a source for gs://bucket/prefix.
func NewGCS(objects gcs.ObjectStore, bucket, prefix string) *GCS {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &GCS{objects: objects, bucket: bucket, prefix: prefix}
}

// Load reads every input object directly under the prefix.
func (g *GCS) Load(ctx context.Context) (map[string][]domain.RawTransaction, error) {
	names, err := g.objects.List(ctx, g.bucket, g.prefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make(map[string][]domain.RawTransaction)
	for _, name := range names {
		rel := strings.TrimPrefix(name, g.prefix)
		if strings.Contains(rel, "/") {
			continue
		}
		if _, ok := accountName(rel); !ok {
			continue
		}

		data, _, err := g.objects.Read(ctx, g.bucket, name)
		if err != nil {
			return nil, err
		}

		account, records, err := decodeFile(ctx, rel, data)
		if err != nil {
			return nil, err
		}
		out[account] = append(out[account], records...)
	}
	return out, nil
}
