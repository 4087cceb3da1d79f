package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-sync/internal/config"
	"github.com/dvloznov/ledger-sync/internal/logger"
	"github.com/dvloznov/ledger-sync/internal/pipeline"
	"github.com/dvloznov/ledger-sync/internal/staleness"
	"github.com/dvloznov/ledger-sync/internal/ui"
)

const defaultConfigPath = "ledger-sync.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var code int
	switch os.Args[1] {
	case "import":
		code = runImport(os.Args[2:])
	case "stale":
		code = runStale(os.Args[2:])
	case "history":
		code = runHistory(os.Args[2:])
	case "accounts":
		code = runAccounts(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		code = 1
	}
	os.Exit(code)
}

func printUsage() {
	fmt.Println("Ledger Sync")
	fmt.Println("\nUsage:")
	fmt.Println("  ledger-sync <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  import    Import scraped transactions into the ledger")
	fmt.Println("  stale     Report accounts whose extraction has not succeeded recently")
	fmt.Println("  history   Show recorded runs for an account")
	fmt.Println("  accounts  List ledger accounts and their ids")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'ledger-sync <command> -h' for more information on a command.")
}

// setup parses common flags, loads the config and returns a context carrying
// the logger, bounded by the configured timeout and cancelled on Ctrl+C.
func setup(fs *flag.FlagSet, args []string) (context.Context, context.CancelFunc, *config.Config, zerolog.Logger, error) {
	configPath := fs.String("config", defaultConfigPath, "Path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, zerolog.Nop(), err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, nil, nil, logger.New(os.Getenv(config.EnvLogLevel)), err
	}

	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	ctx = logger.WithContext(ctx, log)

	return ctx, func() { cancel(); stop() }, cfg, log, nil
}

func runImport(args []string) int {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Normalize and log without submitting, recording or notifying")

	ctx, cancel, cfg, log, err := setup(fs, args)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	defer cancel()

	a := newApp(cfg)
	defer a.Close()

	out := ui.NewPrinter(os.Stdout)

	src, err := a.source(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open input")
		return 1
	}
	normalizer, err := a.normalizer()
	if err != nil {
		log.Error().Err(err).Msg("Invalid normalization settings")
		return 1
	}

	imp := pipeline.NewImporter(pipeline.Deps{
		Accounts:     cfg.Accounts,
		Source:       src,
		Normalizer:   normalizer,
		Ledger:       a.ledger(),
		History:      a.openHistory(ctx),
		Reporter:     staleness.NewReporter(cfg.Staleness.ThresholdHours),
		Sink:         a.sink(),
		KeyMaxLength: cfg.ImportKey.MaxLength,
		DryRun:       *dryRun,
	})

	summary, runErr := imp.Run(ctx)
	if summary != nil {
		printSummary(out, summary)
	}
	if runErr != nil {
		log.Error().Err(runErr).Msg("Import failed")
		out.Error("%v", runErr)
		return 1
	}
	return 0
}

func printSummary(out *ui.Printer, s *pipeline.Summary) {
	title := "Import summary"
	if s.DryRun {
		title = "Import summary (dry run)"
	}
	out.Header(title)
	for _, r := range s.Accounts {
		if r.Err != nil {
			out.Error("%s: %v", r.Account, r.Err)
			continue
		}
		out.Success("%s: %d read, %d submitted, %d new, %d duplicates", r.Account, r.Read, r.Submitted, r.New, r.Duplicates)
	}
	for _, a := range s.Advisories {
		out.Warning("%s", a.Text)
	}
	out.Info("%d new transactions", s.TotalNew)
}

func runStale(args []string) int {
	fs := flag.NewFlagSet("stale", flag.ExitOnError)

	ctx, cancel, cfg, log, err := setup(fs, args)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	defer cancel()

	a := newApp(cfg)
	defer a.Close()

	out := ui.NewPrinter(os.Stdout)
	advisories := staleness.NewReporter(cfg.Staleness.ThresholdHours).Report(a.openHistory(ctx))
	if len(advisories) == 0 {
		out.Success("All accounts ran successfully within %d hours", cfg.Staleness.ThresholdHours)
		return 0
	}
	for _, adv := range advisories {
		out.Warning("%s", adv.Text)
	}
	return 0
}

func runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	account := fs.String("account", "", "Account to show (all accounts when empty)")
	limit := fs.Int("limit", 20, "Maximum number of runs to show")

	ctx, cancel, cfg, log, err := setup(fs, args)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	defer cancel()

	a := newApp(cfg)
	defer a.Close()

	out := ui.NewPrinter(os.Stdout)
	runs := a.openHistory(ctx)
	entries := runs.Entries()
	if *account != "" {
		if _, ok := cfg.Account(*account); !ok {
			out.Warning("Account %q is not in the config", *account)
		}
		entries = runs.ForAccount(*account)
	}
	if *limit > 0 && len(entries) > *limit {
		entries = entries[:*limit]
	}

	out.History(entries)
	return 0
}

func runAccounts(args []string) int {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	showClosed := fs.Bool("closed", false, "Include closed accounts")

	ctx, cancel, cfg, log, err := setup(fs, args)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	defer cancel()

	accounts, err := newApp(cfg).ledger().ListAccounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list ledger accounts")
		return 1
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })

	out := ui.NewPrinter(os.Stdout)
	out.Header("Ledger accounts")
	for _, acc := range accounts {
		if acc.Deleted || (acc.Closed && !*showClosed) {
			continue
		}
		line := fmt.Sprintf("%-36s  %s (%s)", acc.ID, acc.Name, acc.Type)
		if acc.Closed {
			out.Warning("%s [closed]", line)
			continue
		}
		out.Info("%s", line)
	}
	return 0
}
