// Package pipeline runs one import: load raw input, normalize and submit each
// account, record the outcome and notify.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/importkey"
	"github.com/dvloznov/ledger-sync/internal/ledger"
	"github.com/dvloznov/ledger-sync/internal/logger"
	"github.com/dvloznov/ledger-sync/internal/normalize"
	"github.com/dvloznov/ledger-sync/internal/notify"
	"github.com/dvloznov/ledger-sync/internal/source"
	"github.com/dvloznov/ledger-sync/internal/staleness"
)

// Deps holds everything an Importer needs.
type Deps struct {
	Accounts     []domain.AccountConfig
	Source       source.Source
	Normalizer   *normalize.Normalizer
	Ledger       ledger.Service
	History      RunHistory
	Reporter     *staleness.Reporter
	Sink         notify.Sink
	KeyMaxLength int
	DryRun       bool
	Now          func() time.Time
}

// Importer sequences one run over every account found in the input.
type Importer struct {
	deps Deps
}

// NewImporter creates an importer. A nil Sink disables notifications.
func NewImporter(deps Deps) *Importer {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Reporter == nil {
		deps.Reporter = staleness.NewReporter(staleness.DefaultThresholdHours)
	}
	return &Importer{deps: deps}
}

// Run processes accounts in name order and stops at the first failing
// account, after recording the failure. The returned summary is non-nil
// whenever input was loaded.
func (imp *Importer) Run(ctx context.Context) (*Summary, error) {
	d := imp.deps
	runID := d.History.RunID()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	input, err := d.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load input: %w", err)
	}

	summary := &Summary{RunID: runID, DryRun: d.DryRun}

	// Only accounts with input are resolved, so an idle account never
	// triggers a ledger lookup
	configured := make(map[string]domain.AccountConfig, len(d.Accounts))
	var active []domain.AccountConfig
	for _, acc := range d.Accounts {
		configured[acc.Name] = acc
		if _, ok := input[acc.Name]; ok {
			active = append(active, acc)
		}
	}

	resolver := ledger.NewResolver(active)
	if !d.DryRun {
		resolver, err = ledger.ResolveAccounts(ctx, d.Ledger, active)
		if err != nil {
			return summary, err
		}
	}

	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)

	log.Info().Int("accounts", len(names)).Bool("dry_run", d.DryRun).Msg("Starting import")

	keys := importkey.NewScope(d.KeyMaxLength, log)
	pipe := NewPipeline(
		&ResolveStep{Resolver: resolver, DryRun: d.DryRun},
		&NormalizeStep{Normalizer: d.Normalizer},
		&SubmitStep{Service: d.Ledger, DryRun: d.DryRun},
	)

	for _, name := range names {
		actx := logger.WithAccount(ctx, name)
		acc, ok := configured[name]
		state := &AccountState{
			Name:       name,
			Account:    acc,
			Configured: ok,
			Raw:        input[name],
			Keys:       keys,
		}

		execErr := pipe.Execute(actx, state)
		result := AccountResult{
			Account:   name,
			Read:      len(state.Raw),
			Submitted: len(state.Transactions),
			Err:       execErr,
		}
		if state.Result != nil {
			result.New = state.Result.New
			result.Duplicates = len(state.Result.DuplicateImportIDs)
		}
		summary.Accounts = append(summary.Accounts, result)

		if execErr != nil {
			imp.record(actx, name, false, nil)
			return summary, fmt.Errorf("account %q: %w", name, execErr)
		}

		submitted := result.Submitted
		imp.record(actx, name, true, &submitted)
		summary.TotalNew += result.New
	}

	summary.Advisories = d.Reporter.Report(d.History)
	for _, a := range summary.Advisories {
		log.Warn().Str("account", a.Account).Msg(a.Text)
	}

	if d.DryRun || d.Sink == nil || summary.TotalNew == 0 {
		return summary, nil
	}

	message := notify.BuildMessage(summary.TotalNew, staleness.Lines(summary.Advisories))
	if err := d.Sink.Send(ctx, message); err != nil {
		log.Error().Err(err).Msg("Failed to send notification")
		return summary, nil
	}
	summary.Notified = true

	return summary, nil
}

// record appends a history entry. Persistence failures are logged only.
func (imp *Importer) record(ctx context.Context, account string, success bool, count *int) {
	if imp.deps.DryRun {
		return
	}
	if err := imp.deps.History.RecordRun(ctx, account, success, imp.deps.Now(), count); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to persist run history")
	}
}
