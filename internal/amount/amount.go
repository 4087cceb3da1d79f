// Package amount turns scraped amounts into signed ledger milliunits.
package amount

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// acceptedPattern is checked after stripping everything but digits, '.' and '-'.
	acceptedPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|Infinity)$`)

	// currencyCodePattern matches ISO 4217 style codes such as "USD" or "EUR".
	currencyCodePattern = regexp.MustCompile(`(^|[^A-Za-z])[A-Z]{3}([^A-Za-z]|$)`)

	milliunitsPerUnit = decimal.NewFromInt(1000)
)

// Parser parses raw amounts. LocalMarkers are currency symbols or codes that
// denote the account's own currency; they are stripped instead of rejected.
type Parser struct {
	LocalMarkers []string
}

// NewParser returns a parser that accepts the given local currency markers.
func NewParser(localMarkers ...string) *Parser {
	markers := make([]string, 0, len(localMarkers))
	for _, m := range localMarkers {
		if m = strings.TrimSpace(m); m != "" {
			markers = append(markers, m)
		}
	}
	return &Parser{LocalMarkers: markers}
}

// Parse converts a raw amount into a decimal in currency units.
// Numbers pass through unchanged. Text is checked for foreign currency
// markers, stripped to digits, '.' and '-', and then parsed.
func (p *Parser) Parse(raw domain.RawAmount) (decimal.Decimal, error) {
	switch raw.Kind {
	case domain.AmountNumber:
		d, err := decimal.NewFromString(raw.Value)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, raw)
		}
		return d, nil
	case domain.AmountText:
		return p.parseText(raw.Value)
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, raw)
	}
}

func (p *Parser) parseText(text string) (decimal.Decimal, error) {
	local := text
	for _, marker := range p.LocalMarkers {
		local = strings.ReplaceAll(local, marker, "")
	}
	if hasForeignCurrency(local) {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedCurrency, text)
	}

	stripped := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, local)

	if !acceptedPattern.MatchString(stripped) {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, text)
	}

	d, err := decimal.NewFromString(stripped)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, text)
	}
	return d, nil
}

func hasForeignCurrency(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Sc, r) {
			return true
		}
	}
	return currencyCodePattern.MatchString(s)
}

// ToMilliunits applies the ledger's outflow convention: scraped charges are
// positive, ledger outflows are negative, and amounts are in 1/1000 units.
func ToMilliunits(d decimal.Decimal) (int64, error) {
	m := d.Neg().Mul(milliunitsPerUnit).Round(0)
	bi := m.BigInt()
	if !bi.IsInt64() {
		return 0, fmt.Errorf("%w: %s out of range", domain.ErrInvalidAmount, d)
	}
	return bi.Int64(), nil
}
