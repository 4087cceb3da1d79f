// Package importkey derives the idempotency keys the ledger uses to detect
// resubmitted transactions.
//
// A key is daysSinceEpoch + base64(md5(payee)) + milliunits + counter, cut to
// the ledger's field limit. The counter separates genuinely distinct
// transactions that share date, payee and amount within one run. Keys with a
// long amount can lose their counter to the length cut; the ledger then sees
// such transactions as one. Scope logs whenever that happens.
package importkey

import (
	"crypto/md5"
	"encoding/base64"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
)

// DefaultMaxLength is the ledger's import_id field limit.
const DefaultMaxLength = 35

// Epoch is day zero for the date component of a key.
var Epoch = civil.Date{Year: 2000, Month: time.January, Day: 1}

// Prefix returns the key without the disambiguation counter.
func Prefix(date civil.Date, payee string, milliunits int64) string {
	sum := md5.Sum([]byte(payee))
	return strconv.Itoa(date.DaysSince(Epoch)) +
		base64.StdEncoding.EncodeToString(sum[:]) +
		strconv.FormatInt(milliunits, 10)
}

// Scope hands out keys for one run. Counters live only as long as the Scope,
// so every run (or test) must start from a fresh one. A Scope is not safe for
// concurrent use.
type Scope struct {
	maxLength int
	counts    map[string]int
	issued    map[string]struct{}
	log       zerolog.Logger
}

// NewScope returns an empty scope. maxLength <= 0 selects DefaultMaxLength.
func NewScope(maxLength int, log zerolog.Logger) *Scope {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Scope{
		maxLength: maxLength,
		counts:    make(map[string]int),
		issued:    make(map[string]struct{}),
		log:       log,
	}
}

// Key returns the next key for the given transaction identity.
func (s *Scope) Key(date civil.Date, payee string, milliunits int64) string {
	prefix := Prefix(date, payee, milliunits)

	n, seen := s.counts[prefix]
	if seen {
		n++
	}
	s.counts[prefix] = n

	key := prefix + strconv.Itoa(n)
	if len(key) > s.maxLength {
		key = key[:s.maxLength]
		if n > 0 {
			s.log.Warn().
				Str("prefix", prefix).
				Int("counter", n).
				Int("max_length", s.maxLength).
				Str("import_key", key).
				Msg("Import key truncation removed the disambiguation counter")
		}
	}

	if _, dup := s.issued[key]; dup {
		s.log.Warn().
			Str("import_key", key).
			Msg("Import key issued twice in one run; the ledger will treat these transactions as one")
	}
	s.issued[key] = struct{}{}

	return key
}
