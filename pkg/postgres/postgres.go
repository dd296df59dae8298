package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jakechorley/staffplan/pkg/db"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const applicationName = "staffplan"

// requiredTables must exist once every migration has been applied
var requiredTables = []string{
	"departments",
	"employees",
	"shift_templates",
	"time_off_requests",
	"employee_preferences",
	"historical_shifts",
	"training_runs",
	"schedules",
	"assignments",
}

// DB provides roster, history, ledger and schedule storage using PostgreSQL
type DB struct {
	pool *pgxpool.Pool
}

var _ db.Database = (*DB)(nil)

// NewDB connects to connString and checks the connection
func NewDB(ctx context.Context, connString string) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if poolCfg.ConnConfig.RuntimeParams["application_name"] == "" {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (d *DB) Close() {
	d.pool.Close()
}

// migration is one embedded SQL file
type migration struct {
	name string
	sql  string
}

// loadMigrations returns the embedded migrations in filename order
func loadMigrations(fsys fs.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := make([]migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		if strings.TrimSpace(string(content)) == "" {
			return nil, fmt.Errorf("migration %s is empty", entry.Name())
		}
		migrations = append(migrations, migration{name: entry.Name(), sql: string(content)})
	}

	slices.SortFunc(migrations, func(a, b migration) int { return strings.Compare(a.name, b.name) })
	return migrations, nil
}

// Migrate applies pending migrations, each in its own transaction, then checks that
// every staffplan table exists. Applied files are tracked in schema_migrations.
func (d *DB) Migrate(ctx context.Context) error {
	migrations, err := loadMigrations(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	if _, err := d.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	rows, err := d.pool.Query(ctx, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	appliedNames, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, m := range pendingMigrations(migrations, appliedNames) {
		err := pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", m.name, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, m.name); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return d.verifySchema(ctx)
}

// pendingMigrations returns the migrations not yet recorded, keeping their order
func pendingMigrations(migrations []migration, applied []string) []migration {
	pending := make([]migration, 0, len(migrations))
	for _, m := range migrations {
		if !slices.Contains(applied, m.name) {
			pending = append(pending, m)
		}
	}
	return pending
}

func (d *DB) verifySchema(ctx context.Context) error {
	rows, err := d.pool.Query(ctx, `
		SELECT table_name::text
		FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = ANY($1)
	`, requiredTables)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	present, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}

	if missing := missingTables(present); len(missing) > 0 {
		return fmt.Errorf("schema is incomplete after migrating, missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func missingTables(present []string) []string {
	var missing []string
	for _, table := range requiredTables {
		if !slices.Contains(present, table) {
			missing = append(missing, table)
		}
	}
	return missing
}
