package domain

// AccountConfig describes one scraped account and where it lands in the ledger.
type AccountConfig struct {
	// Name is the account identifier used by the scraper (the input file name).
	Name string `yaml:"name"`

	// LedgerAccountID is the ledger's account UUID. When empty,
	// LedgerAccountName is looked up in the ledger at startup.
	LedgerAccountID   string `yaml:"ledger_account_id"`
	LedgerAccountName string `yaml:"ledger_account_name"`

	// HasBillingCycle marks card accounts whose charges post on a statement
	// date rather than the purchase date.
	HasBillingCycle bool `yaml:"has_billing_cycle"`

	// LocalCurrencySymbol is stripped from text amounts instead of being
	// treated as a foreign currency marker.
	LocalCurrencySymbol string `yaml:"local_currency_symbol"`
}
