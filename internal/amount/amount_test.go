package amount

import (
	"testing"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name    string
		raw     domain.RawAmount
		local   []string
		want    string
		wantErr error
	}{
		{name: "number passes through", raw: domain.NumberAmount("12.5"), want: "12.5"},
		{name: "negative number", raw: domain.NumberAmount("-7"), want: "-7"},
		{name: "plain text", raw: domain.TextAmount("12.50"), want: "12.5"},
		{name: "thousands separator", raw: domain.TextAmount("1,234.50"), want: "1234.5"},
		{name: "surrounding spaces", raw: domain.TextAmount("  42 "), want: "42"},
		{name: "negative text", raw: domain.TextAmount("-3.10"), want: "-3.1"},
		{name: "local symbol stripped", raw: domain.TextAmount("₪12.50"), local: []string{"₪"}, want: "12.5"},
		{name: "local code stripped", raw: domain.TextAmount("12.50 ILS"), local: []string{"ILS"}, want: "12.5"},
		{name: "dollar sign", raw: domain.TextAmount("$12.50"), wantErr: domain.ErrUnsupportedCurrency},
		{name: "euro sign", raw: domain.TextAmount("12,50€"), wantErr: domain.ErrUnsupportedCurrency},
		{name: "iso code", raw: domain.TextAmount("USD 12.50"), wantErr: domain.ErrUnsupportedCurrency},
		{name: "unconfigured local symbol", raw: domain.TextAmount("₪12.50"), wantErr: domain.ErrUnsupportedCurrency},
		{name: "no digits", raw: domain.TextAmount("abc"), wantErr: domain.ErrInvalidAmount},
		{name: "empty text", raw: domain.TextAmount(""), wantErr: domain.ErrInvalidAmount},
		{name: "two dots", raw: domain.TextAmount("1.2.3"), wantErr: domain.ErrInvalidAmount},
		{name: "inner minus", raw: domain.TextAmount("12-5"), wantErr: domain.ErrInvalidAmount},
		{name: "bad number literal", raw: domain.NumberAmount("1..2"), wantErr: domain.ErrInvalidAmount},
		{name: "invalid kind", raw: domain.RawAmount{Kind: domain.AmountInvalid, Value: "null"}, wantErr: domain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewParser(tt.local...).Parse(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestToMilliunits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12.5", -12500},
		{"12.50", -12500},
		{"-3.1", 3100},
		{"0", 0},
		{"0.0004", 0},
		{"0.0005", -1},
		{"1234.567", -1234567},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToMilliunits(decimal.RequireFromString(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMilliunits_OutOfRange(t *testing.T) {
	_, err := ToMilliunits(decimal.RequireFromString("99999999999999999999"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
