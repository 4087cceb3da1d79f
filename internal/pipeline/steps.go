package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/ledger"
	"github.com/dvloznov/ledger-sync/internal/logger"
	"github.com/dvloznov/ledger-sync/internal/normalize"
)

// ResolveStep maps the scraped account to its ledger account id. It runs
// before any network call for the account.
type ResolveStep struct {
	Resolver *ledger.Resolver
	DryRun   bool
}

func (s *ResolveStep) Name() string { return "resolve" }

func (s *ResolveStep) Execute(ctx context.Context, state *AccountState) error {
	if !state.Configured {
		return fmt.Errorf("%w: %q is not configured", domain.ErrUnknownAccount, state.Name)
	}

	id, err := s.Resolver.Resolve(state.Name)
	if err != nil {
		// Name-only accounts are never looked up in a dry run
		if s.DryRun && state.Account.LedgerAccountName != "" {
			state.LedgerAccountID = "name:" + state.Account.LedgerAccountName
			return nil
		}
		return err
	}
	state.LedgerAccountID = id
	return nil
}

// NormalizeStep converts raw records into canonical transactions.
type NormalizeStep struct {
	Normalizer *normalize.Normalizer
}

func (s *NormalizeStep) Name() string { return "normalize" }

func (s *NormalizeStep) Execute(ctx context.Context, state *AccountState) error {
	txs, err := s.Normalizer.Normalize(ctx, state.Account, state.LedgerAccountID, state.Raw, state.Keys)
	if err != nil {
		return err
	}
	state.Transactions = txs
	return nil
}

// SubmitStep sends the batch to the ledger. In a dry run it only logs.
type SubmitStep struct {
	Service ledger.Service
	DryRun  bool
}

func (s *SubmitStep) Name() string { return "submit" }

func (s *SubmitStep) Execute(ctx context.Context, state *AccountState) error {
	if s.DryRun {
		log := logger.FromContext(ctx)
		for _, tx := range state.Transactions {
			log.Info().
				Str("date", tx.Date.String()).
				Str("payee", tx.PayeeName).
				Int64("amount", tx.AmountMilliunits).
				Str("memo", tx.Memo).
				Str("import_id", tx.ImportKey).
				Msg("Dry run: would submit")
		}
		state.Result = &ledger.CreateResult{}
		return nil
	}

	result, err := ledger.SubmitTransactions(ctx, s.Service, state.Transactions)
	if err != nil {
		return err
	}
	state.Result = result
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *AccountState) error {
	for _, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return nil
}
