package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Field limits imposed by the ledger API. Longer values are cut, never rejected.
const (
	PayeeLimit = 50
	MemoLimit  = 200
)

// Truncate returns s in NFC form cut to at most limit characters.
func Truncate(s string, limit int) string {
	s = norm.NFC.String(s)
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// TruncatePayee applies the payee name limit.
func TruncatePayee(payee string) string {
	return Truncate(strings.TrimSpace(payee), PayeeLimit)
}

// TruncateMemo applies the memo limit.
func TruncateMemo(memo string) string {
	return Truncate(strings.TrimSpace(memo), MemoLimit)
}
