package domain

import (
	"encoding/json"
	"time"
)

// HistoryEntry records the outcome of one run for one account.
type HistoryEntry struct {
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Success bool      `json:"success"`
	Amount  *int      `json:"amount,omitempty"`
	RunID   string    `json:"run_id,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. Entries written before the
// success flag existed were only ever written for successful extractions.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	type plain HistoryEntry
	var aux struct {
		plain
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = HistoryEntry(aux.plain)
	e.Success = aux.Success == nil || *aux.Success
	return nil
}
