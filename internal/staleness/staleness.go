// Package staleness flags accounts whose extraction has not succeeded recently.
package staleness

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dvloznov/ledger-sync/internal/domain"
)

// DefaultThresholdHours is the number of whole hours after which an account
// counts as stale.
const DefaultThresholdHours = 72

// History is the read side of the run ledger.
type History interface {
	Accounts() []string
	LastSuccessful(account string) (domain.HistoryEntry, bool)
}

// Advisory describes one stale account.
type Advisory struct {
	Account     string
	LastSuccess *time.Time
	Text        string
}

// Reporter computes advisories from a history.
type Reporter struct {
	ThresholdHours int
	Now            func() time.Time
}

// NewReporter returns a reporter with the given threshold. Zero or negative
// thresholds fall back to DefaultThresholdHours.
func NewReporter(thresholdHours int) *Reporter {
	if thresholdHours <= 0 {
		thresholdHours = DefaultThresholdHours
	}
	return &Reporter{ThresholdHours: thresholdHours, Now: time.Now}
}

// Report returns one advisory per stale account, sorted by account name.
// Accounts that never succeeded are always stale.
func (r *Reporter) Report(h History) []Advisory {
	now := r.Now()
	accounts := append([]string(nil), h.Accounts()...)
	sort.Strings(accounts)

	var out []Advisory
	for _, account := range accounts {
		last, ok := h.LastSuccessful(account)
		if !ok {
			out = append(out, Advisory{
				Account: account,
				Text:    fmt.Sprintf("Account %q has never run successfully", account),
			})
			continue
		}

		hours := int(now.Sub(last.Date) / time.Hour)
		if hours <= r.ThresholdHours {
			continue
		}

		date := last.Date
		out = append(out, Advisory{
			Account:     account,
			LastSuccess: &date,
			Text: fmt.Sprintf("Account %q last ran successfully %s",
				account, humanize.RelTime(last.Date, now, "ago", "from now")),
		})
	}
	return out
}

// Lines returns the advisory texts in order.
func Lines(advisories []Advisory) []string {
	lines := make([]string, 0, len(advisories))
	for _, a := range advisories {
		lines = append(lines, a.Text)
	}
	return lines
}
