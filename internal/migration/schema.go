package migration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"ktest/internal/config"
	"ktest/internal/domain"
	"ktest/internal/storage"
)

// migrationsTable records applied migrations
const migrationsTable = "ktest_migrations"

// Migration is one schema change
type Migration struct {
	Name  string
	Table string
	Up    string
}

// Migrations are applied in order and never edited once released
var Migrations = []Migration{
	{
		Name:  "2026_01_01_000001_create_runs_table",
		Table: storage.RunsTable,
		Up: "CREATE TABLE IF NOT EXISTS `" + storage.RunsTable + "` (" +
			"id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY, " +
			"started_at DATETIME NOT NULL, " +
			"duration_seconds DOUBLE NOT NULL, " +
			"workers INT NOT NULL, " +
			"total_images INT NOT NULL, " +
			"failed_images INT NOT NULL, " +
			"passed_tests INT NOT NULL, " +
			"failed_tests INT NOT NULL, " +
			"ignored_tests INT NOT NULL" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	},
	{
		Name:  "2026_01_01_000002_create_images_table",
		Table: storage.ImagesTable,
		Up: "CREATE TABLE IF NOT EXISTS `" + storage.ImagesTable + "` (" +
			"id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY, " +
			"run_id BIGINT UNSIGNED NOT NULL, " +
			"image_path VARCHAR(1024) NOT NULL, " +
			"test_group VARCHAR(1024) NOT NULL, " +
			"success BOOLEAN NOT NULL, " +
			"completed BOOLEAN NOT NULL, " +
			"timed_out BOOLEAN NOT NULL, " +
			"exit_status INT NOT NULL, " +
			"FOREIGN KEY (run_id) REFERENCES `" + storage.RunsTable + "` (id) ON DELETE CASCADE" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	},
	{
		Name:  "2026_01_01_000003_create_records_table",
		Table: storage.RecordsTable,
		Up: "CREATE TABLE IF NOT EXISTS `" + storage.RecordsTable + "` (" +
			"id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY, " +
			"run_id BIGINT UNSIGNED NOT NULL, " +
			"image_path VARCHAR(1024) NOT NULL, " +
			"test VARCHAR(1024) NOT NULL, " +
			"result VARCHAR(16) NOT NULL, " +
			"cycle_count BIGINT UNSIGNED NOT NULL, " +
			"location VARCHAR(1024) NOT NULL, " +
			"message TEXT NOT NULL, " +
			"INDEX (result), " +
			"FOREIGN KEY (run_id) REFERENCES `" + storage.RunsTable + "` (id) ON DELETE CASCADE" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	},
}

// SchemaMigrator implements Migrator for the results database
type SchemaMigrator struct {
	config          *config.Config
	databaseManager *DatabaseManager
}

// NewSchemaMigrator creates a new SchemaMigrator
func NewSchemaMigrator(cfg *config.Config, dbManager *DatabaseManager) *SchemaMigrator {
	return &SchemaMigrator{
		config:          cfg,
		databaseManager: dbManager,
	}
}

// Run creates the database if needed and applies pending migrations
func (sm *SchemaMigrator) Run(ctx context.Context, fresh bool) error {
	color.Cyan("\n╔════════════════════════════════════════════════════════════╗")
	color.Cyan("║               Running Database Migrations                  ║")
	color.Cyan("╚════════════════════════════════════════════════════════════╝\n")

	created, err := sm.databaseManager.EnsureDatabase(ctx)
	if err != nil {
		return fmt.Errorf("failed to check database: %w", err)
	}
	if created {
		color.White("Created database %s\n", sm.config.Database.Name)
	}

	db, err := sm.databaseManager.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if fresh {
		if err := sm.dropAll(ctx, db); err != nil {
			return err
		}
	}
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS `"+migrationsTable+"` (name VARCHAR(255) PRIMARY KEY, applied_at DATETIME NOT NULL)"); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := sm.appliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	pending := Pending(Migrations, applied)

	color.White("Database: %s | Migrations: %d | Pending: %d\n\n", sm.config.Database.Name, len(Migrations), len(pending))
	if len(pending) == 0 {
		color.Green("✓ Nothing to migrate\n")
		return nil
	}

	bar := progressbar.NewOptions(len(pending),
		progressbar.OptionSetDescription(
			color.CyanString("Migrating: ")+
				color.GreenString("[completed: 0/%d]", len(pending)),
		),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	startTime := time.Now()
	var results []domain.MigrationResult
	for i, m := range pending {
		result := sm.apply(ctx, db, m)
		results = append(results, result)
		bar.Set(i + 1)
		bar.Describe(color.CyanString("Migrating: ") +
			color.GreenString("[completed: %d/%d]", i+1, len(pending)))
		if result.Error != nil {
			break
		}
	}
	bar.Finish()

	// Print summary
	fmt.Print("\n")
	for _, result := range results {
		if result.Error != nil {
			color.Red("✗ Migration %s failed: %v\n", result.Name, result.Error)
			return fmt.Errorf("migration %s failed: %w", result.Name, result.Error)
		}
	}
	color.Green("✓ Applied %d migration(s)\n", len(results))
	color.White("Duration: %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// apply runs one migration and records it
func (sm *SchemaMigrator) apply(ctx context.Context, db *sql.DB, m Migration) domain.MigrationResult {
	if _, err := db.ExecContext(ctx, m.Up); err != nil {
		return domain.MigrationResult{Name: m.Name, Error: err}
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO `"+migrationsTable+"` (name, applied_at) VALUES (?, ?)", m.Name, time.Now()); err != nil {
		return domain.MigrationResult{Name: m.Name, Error: fmt.Errorf("record migration: %w", err)}
	}
	return domain.MigrationResult{Name: m.Name, Applied: true}
}

func (sm *SchemaMigrator) appliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM `"+migrationsTable+"`")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to read migrations: %w", err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// dropAll drops every table, children first
func (sm *SchemaMigrator) dropAll(ctx context.Context, db *sql.DB) error {
	for _, table := range DropOrder(Migrations) {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS `"+table+"`"); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	color.Yellow("Dropped all tables\n")
	return nil
}

// Pending returns the migrations not in applied, in order
func Pending(migrations []Migration, applied map[string]bool) []Migration {
	var pending []Migration
	for _, m := range migrations {
		if !applied[m.Name] {
			pending = append(pending, m)
		}
	}
	return pending
}

// DropOrder returns the tables to drop for a fresh migration: the
// migration-created tables in reverse order, then the bookkeeping table
func DropOrder(migrations []Migration) []string {
	tables := make([]string, 0, len(migrations)+1)
	for i := len(migrations) - 1; i >= 0; i-- {
		tables = append(tables, migrations[i].Table)
	}
	return append(tables, migrationsTable)
}
