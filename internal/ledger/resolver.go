package ledger

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/logger"
)

// Resolver maps scraper account names to ledger account ids.
type Resolver struct {
	ids map[string]string
}

// NewResolver builds a resolver from accounts that carry a ledger id.
func NewResolver(accounts []domain.AccountConfig) *Resolver {
	r := &Resolver{ids: make(map[string]string, len(accounts))}
	for _, acc := range accounts {
		if acc.LedgerAccountID != "" {
			r.ids[acc.Name] = acc.LedgerAccountID
		}
	}
	return r
}

// ResolveAccounts builds a resolver, looking up accounts configured by ledger
// account name. The ledger is only queried when some account needs a lookup.
func ResolveAccounts(ctx context.Context, svc Service, accounts []domain.AccountConfig) (*Resolver, error) {
	log := logger.FromContext(ctx)
	r := NewResolver(accounts)

	var pending []domain.AccountConfig
	for _, acc := range accounts {
		if acc.LedgerAccountID == "" {
			pending = append(pending, acc)
		}
	}
	if len(pending) == 0 {
		return r, nil
	}

	remote, err := svc.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("ResolveAccounts: %w", err)
	}

	byName := make(map[string]Account, len(remote))
	for _, acc := range remote {
		if acc.Deleted {
			continue
		}
		byName[acc.Name] = acc
	}

	for _, acc := range pending {
		match, ok := byName[acc.LedgerAccountName]
		if !ok || acc.LedgerAccountName == "" {
			return nil, fmt.Errorf("ResolveAccounts: %w: %q has no ledger account named %q",
				domain.ErrUnknownAccount, acc.Name, acc.LedgerAccountName)
		}
		if match.Closed {
			log.Warn().
				Str("account", acc.Name).
				Str("ledger_account", match.Name).
				Msg("Ledger account is closed")
		}
		r.ids[acc.Name] = match.ID
	}

	return r, nil
}

// Resolve returns the ledger account id for a scraper account name.
func (r *Resolver) Resolve(name string) (string, error) {
	id, ok := r.ids[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAccount, name)
	}
	return id, nil
}
