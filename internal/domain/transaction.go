package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// AmountKind tells how an amount was encoded by the scraper.
type AmountKind int

const (
	// AmountInvalid is anything that is neither a JSON number nor a JSON string.
	AmountInvalid AmountKind = iota
	AmountNumber
	AmountText
)

// RawAmount keeps the scraped amount as it arrived. Numbers keep their literal
// text so no precision is lost before decimal parsing.
type RawAmount struct {
	Kind  AmountKind
	Value string
}

// NumberAmount builds a numeric RawAmount from its literal representation.
func NumberAmount(literal string) RawAmount {
	return RawAmount{Kind: AmountNumber, Value: literal}
}

// TextAmount builds a string RawAmount.
func TextAmount(text string) RawAmount {
	return RawAmount{Kind: AmountText, Value: text}
}

func (a RawAmount) String() string {
	switch a.Kind {
	case AmountNumber:
		return a.Value
	case AmountText:
		return fmt.Sprintf("%q", a.Value)
	default:
		return fmt.Sprintf("<invalid %s>", a.Value)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *RawAmount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = TextAmount(s)
	case len(trimmed) > 0 && (trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9')):
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*a = NumberAmount(n.String())
	default:
		// null, bool, objects and arrays are kept so the amount parser can
		// reject them with a useful message
		*a = RawAmount{Kind: AmountInvalid, Value: string(trimmed)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a RawAmount) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AmountNumber:
		return []byte(a.Value), nil
	case AmountText:
		return json.Marshal(a.Value)
	default:
		return []byte("null"), nil
	}
}

// RawTransaction is one scraped record, exactly as the scraper wrote it.
type RawTransaction struct {
	Date        string    `json:"date"`
	Payee       string    `json:"payee"`
	Amount      RawAmount `json:"amount"`
	Memo        string    `json:"memo"`
	Account     string    `json:"account"`
	BillingDate string    `json:"billingDate,omitempty"`

	// Installment and Total are set by card scrapers for split purchases.
	Installment *int `json:"installment,omitempty"`
	Total       *int `json:"total,omitempty"`
}

// HasBillingDate reports whether the record carries a billing cycle date.
func (t RawTransaction) HasBillingDate() bool {
	return strings.TrimSpace(t.BillingDate) != ""
}

// EffectiveMemo returns the memo, falling back to an installment note built
// from the Installment/Total fields.
func (t RawTransaction) EffectiveMemo() string {
	if strings.TrimSpace(t.Memo) != "" {
		return t.Memo
	}
	if t.Installment != nil && t.Total != nil {
		return fmt.Sprintf("Installment: %d out of %d", *t.Installment, *t.Total)
	}
	return t.Memo
}

// Validate checks the shape of the record. Dates and amounts are parsed later
// by the normalizer.
func (t RawTransaction) Validate() error {
	if strings.TrimSpace(t.Payee) == "" {
		return fmt.Errorf("%w: missing payee", ErrInvalidRecord)
	}
	if strings.TrimSpace(t.Date) == "" {
		return fmt.Errorf("%w: missing date", ErrInvalidRecord)
	}
	if t.Amount.Kind == AmountInvalid {
		return fmt.Errorf("%w: amount %s is neither a number nor a string", ErrInvalidAmount, t.Amount)
	}
	return nil
}

// CanonicalTransaction is a normalized transaction ready for the ledger.
type CanonicalTransaction struct {
	AccountID        string     `json:"account_id"`
	Date             civil.Date `json:"date"`
	PayeeName        string     `json:"payee_name"`
	Memo             string     `json:"memo"`
	AmountMilliunits int64      `json:"amount"`
	ImportKey        string     `json:"import_id"`
}
