package staleness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledger-sync/internal/domain"
)

type fakeHistory struct {
	entries []domain.HistoryEntry
}

func (f fakeHistory) Accounts() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range f.entries {
		if !seen[e.Title] {
			seen[e.Title] = true
			out = append(out, e.Title)
		}
	}
	return out
}

func (f fakeHistory) LastSuccessful(account string) (domain.HistoryEntry, bool) {
	var last domain.HistoryEntry
	found := false
	for _, e := range f.entries {
		if e.Title == account && e.Success && (!found || e.Date.After(last.Date)) {
			last, found = e, true
		}
	}
	return last, found
}

func TestReporter_Threshold(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		ago       time.Duration
		wantStale bool
	}{
		{"73 hours is stale", 73 * time.Hour, true},
		{"71 hours is fresh", 71 * time.Hour, false},
		{"72 hours is fresh", 72 * time.Hour, false},
		{"72 hours 59 minutes is fresh", 72*time.Hour + 59*time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReporter(0)
			r.Now = func() time.Time { return now }

			h := fakeHistory{entries: []domain.HistoryEntry{
				{Title: "Bank", Date: now.Add(-tt.ago), Success: true},
			}}

			got := r.Report(h)
			if tt.wantStale {
				require.Len(t, got, 1)
				assert.Equal(t, "Bank", got[0].Account)
				require.NotNil(t, got[0].LastSuccess)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestReporter_Text(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	r := NewReporter(72)
	r.Now = func() time.Time { return now }

	h := fakeHistory{entries: []domain.HistoryEntry{
		{Title: "Savings", Date: now.Add(-4 * 24 * time.Hour), Success: true},
		{Title: "Card", Date: now.Add(-time.Hour), Success: false},
		{Title: "Bank", Date: now.Add(-time.Hour), Success: true},
	}}

	got := r.Report(h)
	require.Len(t, got, 2)
	assert.Equal(t, []string{
		`Account "Card" has never run successfully`,
		`Account "Savings" last ran successfully 4 days ago`,
	}, Lines(got))
	assert.Nil(t, got[0].LastSuccess)
}

func TestReporter_FailureAfterSuccessDoesNotReset(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	r := NewReporter(72)
	r.Now = func() time.Time { return now }

	h := fakeHistory{entries: []domain.HistoryEntry{
		{Title: "Bank", Date: now.Add(-10 * time.Hour), Success: true},
		{Title: "Bank", Date: now.Add(-time.Hour), Success: false},
	}}

	assert.Empty(t, r.Report(h))
}

func TestReporter_EmptyHistory(t *testing.T) {
	assert.Empty(t, NewReporter(72).Report(fakeHistory{}))
}
