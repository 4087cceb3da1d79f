// Package config loads the ledger-sync YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dvloznov/ledger-sync/internal/domain"
	"github.com/dvloznov/ledger-sync/internal/importkey"
	"github.com/dvloznov/ledger-sync/internal/ledger"
	"github.com/dvloznov/ledger-sync/internal/normalize"
	"github.com/dvloznov/ledger-sync/internal/staleness"
)

// Environment variables that override file values.
const (
	EnvToken    = "LEDGER_TOKEN"
	EnvBudgetID = "LEDGER_BUDGET_ID"
	EnvLogLevel = "LEDGER_LOG_LEVEL"
	EnvNotion   = "NOTION_TOKEN"
)

// History backends.
const (
	HistoryFile     = "file"
	HistorySQLite   = "sqlite"
	HistoryBigQuery = "bigquery"
	HistoryGCS      = "gcs"
)

// Notifier kinds.
const (
	NotifyCommand = "command"
	NotifyNotion  = "notion"
	NotifyLog     = "log"
	NotifyNone    = "none"
)

// DefaultLocalCurrencySymbol is stripped from text amounts when an account
// does not configure its own symbol.
const DefaultLocalCurrencySymbol = "₪"

// Config is the whole configuration file.
type Config struct {
	DataDir  string        `yaml:"data_dir"`
	LogLevel string        `yaml:"log_level"`
	Timeout  time.Duration `yaml:"timeout"`

	Ledger    LedgerConfig           `yaml:"ledger"`
	Accounts  []domain.AccountConfig `yaml:"accounts"`
	History   HistoryConfig          `yaml:"history"`
	Staleness StalenessConfig        `yaml:"staleness"`
	Normalize NormalizeConfig        `yaml:"normalize"`
	ImportKey ImportKeyConfig        `yaml:"import_key"`
	Notify    NotifyConfig           `yaml:"notify"`
}

// LedgerConfig points at the budgeting service.
type LedgerConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Token    string        `yaml:"token"`
	BudgetID string        `yaml:"budget_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

// HistoryConfig selects and configures the run history backend.
type HistoryConfig struct {
	Backend string `yaml:"backend"`
	// Path is the local file for the file and sqlite backends.
	Path string `yaml:"path"`
	// URI is gs://bucket/object for the gcs backend.
	URI       string `yaml:"uri"`
	ProjectID string `yaml:"project_id"`
	DatasetID string `yaml:"dataset_id"`
	Table     string `yaml:"table"`
}

// StalenessConfig tunes the staleness reporter.
type StalenessConfig struct {
	ThresholdHours int `yaml:"threshold_hours"`
}

// NormalizeConfig tunes date reattribution.
type NormalizeConfig struct {
	ReferenceOffset    *normalize.Offset `yaml:"reference_offset"`
	InstallmentPattern string            `yaml:"installment_pattern"`
	Timezone           string            `yaml:"timezone"`
}

// ImportKeyConfig tunes import key generation.
type ImportKeyConfig struct {
	MaxLength int `yaml:"max_length"`
}

// NotifyConfig selects the notification sink.
type NotifyConfig struct {
	Kind             string   `yaml:"kind"`
	Command          []string `yaml:"command"`
	NotionToken      string   `yaml:"notion_token"`
	NotionDatabaseID string   `yaml:"notion_database_id"`
}

// Load reads, defaults, overrides from the environment and validates the
// file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, os.Getenv)
}

// Parse builds a Config from YAML bytes. getenv supplies environment overrides.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv(getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvToken); v != "" {
		c.Ledger.Token = v
	}
	if v := getenv(EnvBudgetID); v != "" {
		c.Ledger.BudgetID = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvNotion); v != "" {
		c.Notify.NotionToken = v
	}
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Minute
	}
	if c.Ledger.BaseURL == "" {
		c.Ledger.BaseURL = ledger.DefaultBaseURL
	}
	if c.Ledger.Timeout == 0 {
		c.Ledger.Timeout = ledger.DefaultTimeout
	}
	for i := range c.Accounts {
		if c.Accounts[i].LocalCurrencySymbol == "" {
			c.Accounts[i].LocalCurrencySymbol = DefaultLocalCurrencySymbol
		}
	}
	if c.History.Backend == "" {
		c.History.Backend = HistoryFile
	}
	if c.History.Path == "" {
		switch c.History.Backend {
		case HistoryFile:
			c.History.Path = "history.json"
		case HistorySQLite:
			c.History.Path = "history.db"
		}
	}
	if c.Staleness.ThresholdHours == 0 {
		c.Staleness.ThresholdHours = staleness.DefaultThresholdHours
	}
	if c.Normalize.ReferenceOffset == nil {
		offset := normalize.DefaultReferenceOffset
		c.Normalize.ReferenceOffset = &offset
	}
	if c.Normalize.InstallmentPattern == "" {
		c.Normalize.InstallmentPattern = normalize.DefaultInstallmentPattern
	}
	if c.ImportKey.MaxLength == 0 {
		c.ImportKey.MaxLength = importkey.DefaultMaxLength
	}
	if c.Notify.Kind == "" {
		c.Notify.Kind = NotifyCommand
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Ledger.Token == "" {
		errs = append(errs, fmt.Errorf("ledger.token is required (or set %s)", EnvToken))
	}
	if c.Ledger.BudgetID == "" {
		errs = append(errs, fmt.Errorf("ledger.budget_id is required (or set %s)", EnvBudgetID))
	}
	if c.Timeout < 0 || c.Ledger.Timeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}

	seen := make(map[string]bool)
	for i, acc := range c.Accounts {
		name := strings.TrimSpace(acc.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("accounts[%d]: name is required", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("accounts[%d]: duplicate account %q", i, name))
		}
		seen[name] = true
		if acc.LedgerAccountID == "" && acc.LedgerAccountName == "" {
			errs = append(errs, fmt.Errorf("accounts[%d] %q: ledger_account_id or ledger_account_name is required", i, name))
		}
	}

	switch c.History.Backend {
	case HistoryFile, HistorySQLite:
	case HistoryGCS:
		if c.History.URI == "" {
			errs = append(errs, errors.New("history.uri is required for the gcs backend"))
		}
	case HistoryBigQuery:
		if c.History.ProjectID == "" || c.History.DatasetID == "" {
			errs = append(errs, errors.New("history.project_id and history.dataset_id are required for the bigquery backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown history backend %q", c.History.Backend))
	}

	if c.Staleness.ThresholdHours < 0 {
		errs = append(errs, errors.New("staleness.threshold_hours must not be negative"))
	}
	if _, err := regexp.Compile(c.Normalize.InstallmentPattern); err != nil {
		errs = append(errs, fmt.Errorf("normalize.installment_pattern: %w", err))
	}
	if c.Normalize.Timezone != "" {
		if _, err := time.LoadLocation(c.Normalize.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("normalize.timezone: %w", err))
		}
	}
	if c.ImportKey.MaxLength < 0 {
		errs = append(errs, errors.New("import_key.max_length must not be negative"))
	}

	switch c.Notify.Kind {
	case NotifyCommand, NotifyLog, NotifyNone:
	case NotifyNotion:
		if c.Notify.NotionToken == "" || c.Notify.NotionDatabaseID == "" {
			errs = append(errs, fmt.Errorf("notify.notion_token (or %s) and notify.notion_database_id are required for notion", EnvNotion))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown notifier %q", c.Notify.Kind))
	}

	return errors.Join(errs...)
}

// Location returns the configured timezone, or time.Local.
func (c *Config) Location() *time.Location {
	if c.Normalize.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Normalize.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Account returns the configuration for name.
func (c *Config) Account(name string) (domain.AccountConfig, bool) {
	for _, acc := range c.Accounts {
		if acc.Name == name {
			return acc, true
		}
	}
	return domain.AccountConfig{}, false
}
