package gcs

import (
	"fmt"
	"path"
	"strings"
)

// IsURI reports whether s looks like "gs://bucket/...".
func IsURI(s string) bool {
	return strings.HasPrefix(s, "gs://")
}

// ParseURI splits "gs://bucket/path/to/object" into bucket and object path.
// The object path may be empty for "gs://bucket".
func ParseURI(uri string) (bucket, object string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no bucket): %s", uri)
	}
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], parts[1], nil
}

// BaseName extracts the file name from a GCS URI or object path.
// e.g., "gs://bucket/folder/bank.json" → "bank.json"
func BaseName(uriOrObject string) string {
	trimmed := strings.TrimPrefix(uriOrObject, "gs://")
	return path.Base(trimmed)
}
