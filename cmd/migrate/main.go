package main

import (
	"context"
	"crypto/sha256"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/ledger-sync/internal/logger"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// migrationPattern matches migration files: 0001_name.sql
var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration represents a single migration file
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration represents a migration that has already been applied
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

func main() {
	projectID := flag.String("project", "", "GCP project ID (required)")
	datasetID := flag.String("dataset", "ledger_sync", "BigQuery dataset ID")
	appliedBy := flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log := logger.New(*logLevel)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	if *projectID == "" {
		log.Error().Msg("-project flag is required. Please specify your GCP project ID.")
		os.Exit(1)
	}

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	m := &migrator{client: client, projectID: *projectID, datasetID: *datasetID, appliedBy: *appliedBy}
	if err := m.run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

type migrator struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	appliedBy string
}

func (m *migrator) run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info().Str("project", m.projectID).Str("dataset", m.datasetID).Msg("Connected to BigQuery")

	if err := m.exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS `+"`%s.%s.schema_migrations`"+` (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`, m.projectID, m.datasetID)); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	migrations, err := readMigrations(embeddedMigrations, m.projectID, m.datasetID)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	applied, err := m.applied(ctx)
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}
	log.Info().Int("count", len(applied)).Msg("Found already applied migrations")

	pending, err := pendingMigrations(migrations, applied)
	if err != nil {
		return err
	}

	for _, migration := range pending {
		log.Info().Msgf("  [RUN]  %04d_%s", migration.Version, migration.Name)

		if err := m.exec(ctx, migration.SQL); err != nil {
			return fmt.Errorf("execute migration %04d_%s: %w", migration.Version, migration.Name, err)
		}
		if err := m.record(ctx, migration); err != nil {
			return fmt.Errorf("record migration %04d_%s: %w", migration.Version, migration.Name, err)
		}

		log.Info().Msgf("  [OK]   %04d_%s", migration.Version, migration.Name)
	}

	if len(pending) == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
	} else {
		log.Info().Int("count", len(pending)).Msg("Successfully applied migrations")
	}
	return nil
}

// readMigrations reads all migration files from fsys, substituting the
// project and dataset placeholders.
func readMigrations(fsys fs.FS, projectID, datasetID string) ([]Migration, error) {
	files, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, path := range files {
		filename := path[strings.LastIndex(path, "/")+1:]
		matches := migrationPattern.FindStringSubmatch(filename)
		if matches == nil {
			return nil, fmt.Errorf("migration file with invalid name: %s", filename)
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("migration file with invalid version: %s", filename)
		}
		if other, ok := seen[version]; ok {
			return nil, fmt.Errorf("migrations %s and %s share version %d", other, filename, version)
		}
		seen[version] = filename

		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", filename, err)
		}

		sql := string(content)
		sql = strings.ReplaceAll(sql, "{{PROJECT_ID}}", projectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)

		// Checksum covers the template, so the same migration applied to
		// different datasets has the same checksum
		checksum := fmt.Sprintf("%x", sha256.Sum256(content))

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: filename,
			SQL:      sql,
			Checksum: checksum,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// pendingMigrations returns the migrations not applied yet. An applied
// migration whose file changed since is an error.
func pendingMigrations(migrations []Migration, applied []AppliedMigration) ([]Migration, error) {
	byVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		byVersion[am.Version] = am
	}

	var pending []Migration
	for _, migration := range migrations {
		am, ok := byVersion[migration.Version]
		if !ok {
			pending = append(pending, migration)
			continue
		}
		if am.Checksum != "" && am.Checksum != migration.Checksum {
			return nil, fmt.Errorf("migration %04d_%s changed after it was applied", migration.Version, migration.Name)
		}
	}
	return pending, nil
}

func (m *migrator) applied(ctx context.Context) ([]AppliedMigration, error) {
	query := m.client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM `+"`%s.%s.schema_migrations`"+`
		ORDER BY version ASC
	`, m.projectID, m.datasetID))

	it, err := query.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}

		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}

	return applied, nil
}

func (m *migrator) record(ctx context.Context, migration Migration) error {
	query := m.client.Query(fmt.Sprintf(`
		INSERT INTO `+"`%s.%s.schema_migrations`"+`
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, m.projectID, m.datasetID))
	query.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: migration.Version},
		{Name: "name", Value: migration.Name},
		{Name: "checksum", Value: migration.Checksum},
		{Name: "applied_by", Value: m.appliedBy},
	}
	return runQuery(ctx, query)
}

func (m *migrator) exec(ctx context.Context, sql string) error {
	return runQuery(ctx, m.client.Query(sql))
}

func runQuery(ctx context.Context, query *bigquery.Query) error {
	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
