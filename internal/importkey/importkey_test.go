package importkey

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identity struct {
	date       civil.Date
	payee      string
	milliunits int64
}

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func keys(s *Scope, ids []identity) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.Key(id.date, id.payee, id.milliunits))
	}
	return out
}

func TestPrefix(t *testing.T) {
	got := Prefix(day(2024, time.January, 10), "Coffee Shop", -12500)
	assert.Equal(t, "87752TMNWMBs39ZieGxXhHUbZg==-12500", got)

	assert.True(t, strings.HasPrefix(Prefix(Epoch, "x", 0), "0"))
}

func TestScope_Key_FirstOccurrenceEndsInZero(t *testing.T) {
	s := NewScope(DefaultMaxLength, zerolog.Nop())
	key := s.Key(day(2024, time.January, 10), "Coffee Shop", -12500)
	assert.Equal(t, "87752TMNWMBs39ZieGxXhHUbZg==-125000", key)
	assert.Len(t, key, 35)
}

func TestScope_Key_Deterministic(t *testing.T) {
	ids := []identity{
		{day(2024, time.January, 10), "Coffee Shop", -12500},
		{day(2024, time.January, 10), "Coffee Shop", -12500},
		{day(2024, time.January, 11), "Supermarket", -85300},
		{day(2024, time.January, 10), "Coffee Shop", -12500},
		{day(2023, time.December, 31), "Salary", 1500000},
	}

	first := keys(NewScope(DefaultMaxLength, zerolog.Nop()), ids)
	second := keys(NewScope(DefaultMaxLength, zerolog.Nop()), ids)

	assert.Equal(t, first, second)
}

func TestScope_Key_DisambiguatesIdenticalTransactions(t *testing.T) {
	s := NewScope(100, zerolog.Nop())
	a := s.Key(day(2024, time.January, 10), "Coffee Shop", -4500)
	b := s.Key(day(2024, time.January, 10), "Coffee Shop", -4500)
	c := s.Key(day(2024, time.January, 10), "Coffee Shop", -4500)

	require.NotEqual(t, a, b)
	assert.Equal(t, a[:len(a)-1], b[:len(b)-1])
	assert.Equal(t, "0", a[len(a)-1:])
	assert.Equal(t, "1", b[len(b)-1:])
	assert.Equal(t, "2", c[len(c)-1:])
}

func TestScope_Key_ScopesAreIndependent(t *testing.T) {
	date := day(2024, time.January, 10)

	first := NewScope(DefaultMaxLength, zerolog.Nop())
	first.Key(date, "Coffee Shop", -4500)
	first.Key(date, "Coffee Shop", -4500)

	second := NewScope(DefaultMaxLength, zerolog.Nop())
	assert.Equal(t, Prefix(date, "Coffee Shop", -4500)+"0", second.Key(date, "Coffee Shop", -4500))
}

func TestScope_Key_NeverExceedsMaxLength(t *testing.T) {
	s := NewScope(DefaultMaxLength, zerolog.Nop())
	payees := []string{"", "a", "A very long payee name that goes on and on", "קפה"}
	amounts := []int64{0, -1, -12500, -123456789012, 99999999}

	for _, p := range payees {
		for _, a := range amounts {
			for i := 0; i < 12; i++ {
				key := s.Key(day(2024, time.June, 30), p, a)
				assert.LessOrEqual(t, len(key), DefaultMaxLength, "key %q", key)
			}
		}
	}
}

func TestScope_Key_ConfigurableLength(t *testing.T) {
	s := NewScope(20, zerolog.Nop())
	assert.Equal(t, 20, s.maxLength)
	assert.Len(t, s.Key(day(2024, time.January, 10), "Coffee Shop", -12500), 20)

	assert.Equal(t, DefaultMaxLength, NewScope(0, zerolog.Nop()).maxLength)
}

func TestScope_Key_LogsWhenCounterIsCut(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewScope(DefaultMaxLength, zerolog.New(buf))
	date := day(2024, time.January, 10)

	// -125000 makes the prefix 35 characters, so the counter is always cut
	first := s.Key(date, "Coffee Shop", -125000)
	second := s.Key(date, "Coffee Shop", -125000)

	assert.Equal(t, first, second)
	assert.Contains(t, buf.String(), "truncation removed the disambiguation counter")
	assert.Contains(t, buf.String(), "issued twice")
}

func TestScope_Key_NoWarningWithoutCollision(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewScope(DefaultMaxLength, zerolog.New(buf))
	s.Key(day(2024, time.January, 10), "Coffee Shop", -125000)
	s.Key(day(2024, time.January, 11), "Coffee Shop", -125000)

	assert.Empty(t, buf.String())
}
