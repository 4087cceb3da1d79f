package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledger-sync/internal/config"
	"github.com/dvloznov/ledger-sync/internal/history"
	"github.com/dvloznov/ledger-sync/internal/ledger"
	"github.com/dvloznov/ledger-sync/internal/notify"
	"github.com/dvloznov/ledger-sync/internal/pipeline"
	"github.com/dvloznov/ledger-sync/internal/source"
)

func testConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	data := "ledger:\n  token: t\n  budget_id: b\n" + extra
	cfg, err := config.Parse([]byte(data), func(string) string { return "" })
	require.NoError(t, err)
	return cfg
}

func TestApp_Sink(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		want  notify.Sink
	}{
		{"default command", "", &notify.CommandSink{}},
		{"log", "notify:\n  kind: log\n", notify.LogSink{}},
		{"notion", "notify:\n  kind: notion\n  notion_token: x\n  notion_database_id: db\n", &notify.NotionSink{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newApp(testConfig(t, tt.extra))
			assert.IsType(t, tt.want, a.sink())
		})
	}

	assert.Nil(t, newApp(testConfig(t, "notify:\n  kind: none\n")).sink())
}

func TestApp_HistoryStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a := newApp(testConfig(t, "history:\n  backend: file\n  path: "+filepath.Join(dir, "h.json")+"\n"))
	store, err := a.historyStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &history.FileStore{}, store)

	b := newApp(testConfig(t, "history:\n  backend: sqlite\n  path: "+filepath.Join(dir, "h.db")+"\n"))
	defer b.Close()
	store, err = b.historyStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &history.SQLiteStore{}, store)
}

func TestApp_LocalSource(t *testing.T) {
	a := newApp(testConfig(t, "data_dir: "+t.TempDir()+"\n"))
	src, err := a.source(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &source.Dir{}, src)
}

type stubLedger struct {
	submitted []ledger.Transaction
}

func (s *stubLedger) CreateTransactions(_ context.Context, txns []ledger.Transaction) (*ledger.CreateResult, error) {
	s.submitted = append(s.submitted, txns...)
	return &ledger.CreateResult{New: len(txns)}, nil
}

func (s *stubLedger) ListAccounts(context.Context) ([]ledger.Account, error) {
	return nil, nil
}

func TestApp_OpenHistory_BrokenStoreDoesNotBlockImport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	dbPath := filepath.Join(dir, "history.db")

	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.WriteFile(dbPath, []byte(strings.Repeat("not a sqlite database ", 64)), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "leumi.json"),
		[]byte(`[{"date":"2024-01-05","payee":"Cafe","amount":12.5,"memo":""}]`), 0o600))

	cfg := testConfig(t, "data_dir: "+dataDir+"\n"+
		"accounts:\n  - name: leumi\n    ledger_account_id: acc-1\n"+
		"history:\n  backend: sqlite\n  path: "+dbPath+"\n")
	a := newApp(cfg)
	defer a.Close()

	_, err := a.historyStore(ctx)
	require.Error(t, err)

	runs := a.openHistory(ctx)
	assert.Empty(t, runs.Entries())

	src, err := a.source(ctx)
	require.NoError(t, err)
	normalizer, err := a.normalizer()
	require.NoError(t, err)

	stub := &stubLedger{}
	imp := pipeline.NewImporter(pipeline.Deps{
		Accounts:   cfg.Accounts,
		Source:     src,
		Normalizer: normalizer,
		Ledger:     stub,
		History:    runs,
		Now:        func() time.Time { return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC) },
	})

	summary, err := imp.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalNew)
	assert.Len(t, stub.submitted, 1)

	// The entry is kept in memory even though it could not be persisted
	_, ok := runs.LastSuccessful("leumi")
	assert.True(t, ok)
}
