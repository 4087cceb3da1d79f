package normalize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/importkey"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)

func newTestNormalizer(t *testing.T, opts Options) *Normalizer {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	n, err := New(opts)
	require.NoError(t, err)
	return n
}

func newScope() *importkey.Scope {
	return importkey.NewScope(importkey.DefaultMaxLength, zerolog.Nop())
}

var (
	bank = domain.AccountConfig{Name: "bank"}
	card = domain.AccountConfig{Name: "card", HasBillingCycle: true}
)

func TestNormalize_BankTransaction(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	raws := []domain.RawTransaction{
		{Date: "2024-01-10", Payee: "Coffee Shop", Amount: domain.TextAmount("12.50"), Account: "bank"},
	}

	got, err := n.Normalize(context.Background(), bank, "ledger-uuid", raws, newScope())
	require.NoError(t, err)
	require.Len(t, got, 1)

	tx := got[0]
	assert.Equal(t, "ledger-uuid", tx.AccountID)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 10}, tx.Date)
	assert.Equal(t, "Coffee Shop", tx.PayeeName)
	assert.Equal(t, "", tx.Memo)
	assert.Equal(t, int64(-12500), tx.AmountMilliunits)
	assert.Equal(t, "87752TMNWMBs39ZieGxXhHUbZg==-125000", tx.ImportKey)
}

func TestNormalize_AmountSignAndScale(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	raws := []domain.RawTransaction{
		{Date: "2024-01-10", Payee: "Shop", Amount: domain.NumberAmount("12.5")},
		{Date: "2024-01-10", Payee: "Refund", Amount: domain.NumberAmount("-40")},
	}

	got, err := n.Normalize(context.Background(), bank, "id", raws, newScope())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(-12500), got[0].AmountMilliunits)
	assert.Equal(t, int64(40000), got[1].AmountMilliunits)
}

func TestNormalize_InstallmentReattribution(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	raws := []domain.RawTransaction{
		{Date: "2024-03-01", Payee: "Electronics", Amount: domain.NumberAmount("100"), Memo: "Installment: 2 out of 3", BillingDate: "2024-03-15"},
		{Date: "2024-03-02", Payee: "Grocer", Amount: domain.NumberAmount("20"), BillingDate: "2024-03-15"},
	}

	got, err := n.Normalize(context.Background(), card, "id", raws, newScope())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 18}, got[0].Date)
	assert.Equal(t, "2024-03-15; Installment: 2 out of 3", got[0].Memo)

	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 2}, got[1].Date)
	assert.Equal(t, "2024-03-15", got[1].Memo)
}

func TestNormalize_InstallmentFromStructuredFields(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	two, three := 2, 3
	raws := []domain.RawTransaction{
		{Date: "2024-01-05", Payee: "Sofa", Amount: domain.NumberAmount("300"), BillingDate: "2024-03-15", Installment: &two, Total: &three},
	}

	got, err := n.Normalize(context.Background(), card, "id", raws, newScope())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 18}, got[0].Date)
	assert.Equal(t, "2024-03-15; Installment: 2 out of 3", got[0].Memo)
}

func TestNormalize_BillingDateIgnoredWithoutCycle(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	raws := []domain.RawTransaction{
		{Date: "2024-03-01", Payee: "Electronics", Amount: domain.NumberAmount("100"), Memo: "2/3", BillingDate: "not a date"},
	}

	got, err := n.Normalize(context.Background(), bank, "id", raws, newScope())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 1}, got[0].Date)
	assert.Equal(t, "2/3", got[0].Memo)
}

func TestNormalize_DateLikeMemoKeepsOwnDate(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	raws := []domain.RawTransaction{
		{Date: "2024-03-01", Payee: "Pharmacy", Amount: domain.NumberAmount("40"), Memo: "ref 12/05", BillingDate: "2024-03-15"},
	}

	got, err := n.Normalize(context.Background(), card, "id", raws, newScope())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 1}, got[0].Date)
	assert.Equal(t, "2024-03-15; ref 12/05", got[0].Memo)
}

func TestNormalize_ConfigurableReferenceOffset(t *testing.T) {
	n := newTestNormalizer(t, Options{ReferenceOffset: &Offset{Months: 0, Days: -10}})
	raws := []domain.RawTransaction{
		{Date: "2024-03-01", Payee: "Electronics", Amount: domain.NumberAmount("100"), Memo: "Payment 1/12", BillingDate: "2024-03-15"},
	}

	got, err := n.Normalize(context.Background(), card, "id", raws, newScope())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 5}, got[0].Date)
}

func TestNormalize_FutureDatedDropped(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	raws := []domain.RawTransaction{
		{Date: "2024-03-20", Payee: "Today", Amount: domain.NumberAmount("1")},
		{Date: "2024-03-21", Payee: "Tomorrow", Amount: domain.NumberAmount("1")},
		{Date: "2025-01-01", Payee: "Next year", Amount: domain.TextAmount("garbage")},
	}

	got, err := n.Normalize(context.Background(), bank, "id", raws, newScope())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Today", got[0].PayeeName)
}

func TestNormalize_TimestampDates(t *testing.T) {
	n := newTestNormalizer(t, Options{Location: time.FixedZone("IST", 2*60*60)})

	raws := []domain.RawTransaction{
		{Date: "2024-01-09T22:30:00.000Z", Payee: "Late", Amount: domain.NumberAmount("1")},
	}

	got, err := n.Normalize(context.Background(), bank, "id", raws, newScope())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 10}, got[0].Date)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		account domain.AccountConfig
		raw     domain.RawTransaction
		wantErr error
	}{
		{
			name:    "bad transaction date",
			account: bank,
			raw:     domain.RawTransaction{Date: "10/01/2024", Payee: "X", Amount: domain.NumberAmount("1")},
			wantErr: domain.ErrInvalidTransactionDate,
		},
		{
			name:    "impossible calendar date",
			account: bank,
			raw:     domain.RawTransaction{Date: "2024-02-30", Payee: "X", Amount: domain.NumberAmount("1")},
			wantErr: domain.ErrInvalidTransactionDate,
		},
		{
			name:    "bad billing date",
			account: card,
			raw:     domain.RawTransaction{Date: "2024-01-01", Payee: "X", Amount: domain.NumberAmount("1"), BillingDate: "2024/03/15"},
			wantErr: domain.ErrInvalidBillingDate,
		},
		{
			name:    "foreign currency",
			account: bank,
			raw:     domain.RawTransaction{Date: "2024-01-01", Payee: "X", Amount: domain.TextAmount("$12.50")},
			wantErr: domain.ErrUnsupportedCurrency,
		},
		{
			name:    "invalid amount",
			account: bank,
			raw:     domain.RawTransaction{Date: "2024-01-01", Payee: "X", Amount: domain.TextAmount("n/a")},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	n := newTestNormalizer(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raws := []domain.RawTransaction{
				{Date: "2024-01-01", Payee: "Fine", Amount: domain.NumberAmount("1")},
				tt.raw,
			}
			got, err := n.Normalize(context.Background(), tt.account, "id", raws, newScope())
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.wantErr)

			var recErr *domain.RecordError
			require.True(t, errors.As(err, &recErr))
			assert.Equal(t, tt.account.Name, recErr.Account)
			assert.Equal(t, 1, recErr.Index)
		})
	}
}

func TestNormalize_TruncatesLongFields(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	raws := []domain.RawTransaction{
		{Date: "2024-01-01", Payee: strings.Repeat("פ", 80), Amount: domain.NumberAmount("1"), Memo: strings.Repeat("m", 500)},
	}

	got, err := n.Normalize(context.Background(), bank, "id", raws, newScope())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, PayeeLimit, len([]rune(got[0].PayeeName)))
	assert.Equal(t, MemoLimit, len([]rune(got[0].Memo)))
	assert.LessOrEqual(t, len(got[0].ImportKey), importkey.DefaultMaxLength)
}

func TestNormalize_DuplicatesGetDistinctKeys(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	coffee := domain.RawTransaction{Date: "2024-01-10", Payee: "Coffee Shop", Amount: domain.NumberAmount("4.5")}

	got, err := n.Normalize(context.Background(), bank, "id", []domain.RawTransaction{coffee, coffee}, newScope())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].ImportKey, got[1].ImportKey)
	assert.True(t, strings.HasSuffix(got[0].ImportKey, "0"))
	assert.True(t, strings.HasSuffix(got[1].ImportKey, "1"))
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(Options{InstallmentPattern: "("})
	assert.Error(t, err)
}

func TestOffset_Apply(t *testing.T) {
	tests := []struct {
		name string
		in   civil.Date
		off  Offset
		want civil.Date
	}{
		{"default", civil.Date{Year: 2024, Month: time.March, Day: 15}, DefaultReferenceOffset, civil.Date{Year: 2024, Month: time.February, Day: 18}},
		{"clamps to leap day", civil.Date{Year: 2024, Month: time.March, Day: 31}, Offset{Months: -1}, civil.Date{Year: 2024, Month: time.February, Day: 29}},
		{"crosses year", civil.Date{Year: 2024, Month: time.January, Day: 10}, DefaultReferenceOffset, civil.Date{Year: 2023, Month: time.December, Day: 13}},
		{"days only", civil.Date{Year: 2024, Month: time.March, Day: 1}, Offset{Days: -1}, civil.Date{Year: 2024, Month: time.February, Day: 29}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.off.Apply(tt.in))
		})
	}
}

func TestInstallmentPattern(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	for _, memo := range []string{"Installment 2/3", "Installment: 2 out of 3", "payment 1 of 12", "תשלום 2 מתוך 6", "2 מתוך 6"} {
		assert.True(t, n.installment.MatchString(memo), memo)
	}
	for _, memo := range []string{"", "refund", "order 12345", "2024-03-15", "ref 12/05", "2/3", "1 of 2 tickets"} {
		assert.False(t, n.installment.MatchString(memo), memo)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "ab", Truncate("ab", 3))
	assert.Equal(t, "", Truncate("abc", 0))
	// decomposed e + combining acute becomes one character after NFC
	assert.Equal(t, "\u00e9", Truncate("e\u0301x", 1))
	assert.Equal(t, "Coffee Shop", TruncatePayee("  Coffee Shop "))
}
