package main

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledger-sync/internal/config"
	"github.com/dvloznov/ledger-sync/internal/gcs"
	"github.com/dvloznov/ledger-sync/internal/history"
	infraBQ "github.com/dvloznov/ledger-sync/internal/infra/bigquery"
	"github.com/dvloznov/ledger-sync/internal/ledger"
	"github.com/dvloznov/ledger-sync/internal/logger"
	"github.com/dvloznov/ledger-sync/internal/normalize"
	"github.com/dvloznov/ledger-sync/internal/notify"
	"github.com/dvloznov/ledger-sync/internal/source"
)

// closers collects cleanup functions for clients opened during wiring.
type closers []func() error

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		_ = c[i]()
	}
}

// app holds the wired dependencies shared by subcommands.
type app struct {
	cfg     *config.Config
	objects *gcs.Client
	closers closers
}

func newApp(cfg *config.Config) *app {
	return &app{cfg: cfg}
}

func (a *app) Close() {
	a.closers.Close()
}

// storage lazily opens the Cloud Storage client.
func (a *app) storage(ctx context.Context) (*gcs.Client, error) {
	if a.objects != nil {
		return a.objects, nil
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	a.objects = client
	a.closers = append(a.closers, client.Close)
	return client, nil
}

// openHistory loads the run history. A backend that cannot be opened is
// logged and replaced by an unavailable store, so commands run on an empty
// history instead of failing.
func (a *app) openHistory(ctx context.Context) *history.Ledger {
	store, err := a.historyStore(ctx)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().
			Err(err).
			Str("backend", a.cfg.History.Backend).
			Msg("Failed to open history store, continuing without persisted history")
		store = history.Unavailable(err)
	}
	return history.Open(ctx, store)
}

func (a *app) historyStore(ctx context.Context) (history.Store, error) {
	h := a.cfg.History
	switch h.Backend {
	case config.HistoryFile:
		return history.NewFileStore(h.Path), nil
	case config.HistorySQLite:
		store, err := history.OpenSQLiteStore(ctx, h.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case config.HistoryBigQuery:
		repo, err := infraBQ.NewBigQueryRunRepository(ctx, infraBQ.TableRef{
			ProjectID: h.ProjectID,
			DatasetID: h.DatasetID,
			Table:     h.Table,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		return history.NewBigQueryStore(repo), nil
	case config.HistoryGCS:
		bucket, object, err := gcs.ParseURI(h.URI)
		if err != nil {
			return nil, err
		}
		client, err := a.storage(ctx)
		if err != nil {
			return nil, err
		}
		return history.NewGCSStore(client, bucket, object), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", h.Backend)
	}
}

func (a *app) source(ctx context.Context) (source.Source, error) {
	if !gcs.IsURI(a.cfg.DataDir) {
		return source.New(a.cfg.DataDir, nil)
	}
	client, err := a.storage(ctx)
	if err != nil {
		return nil, err
	}
	return source.New(a.cfg.DataDir, client)
}

func (a *app) ledger() *ledger.HTTPClient {
	l := a.cfg.Ledger
	return ledger.NewHTTPClient(l.BaseURL, l.Token, l.BudgetID, l.Timeout)
}

func (a *app) normalizer() (*normalize.Normalizer, error) {
	return normalize.New(normalize.Options{
		ReferenceOffset:    a.cfg.Normalize.ReferenceOffset,
		InstallmentPattern: a.cfg.Normalize.InstallmentPattern,
		Location:           a.cfg.Location(),
	})
}

// sink returns nil when notifications are disabled.
func (a *app) sink() notify.Sink {
	n := a.cfg.Notify
	switch n.Kind {
	case config.NotifyNotion:
		return notify.NewNotionSink(notify.NewNotionClient(n.NotionToken), n.NotionDatabaseID)
	case config.NotifyLog:
		return notify.LogSink{}
	case config.NotifyNone:
		return nil
	default:
		return notify.NewCommandSink(n.Command)
	}
}
