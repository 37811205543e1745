package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"ktest/internal/config"
	"ktest/internal/domain"
)

// Tables written by MySQLStorage
const (
	RunsTable    = "ktest_runs"
	ImagesTable  = "ktest_images"
	RecordsTable = "ktest_records"
)

// MySQL error numbers handled specially
const (
	errNoSuchTable     = 1146
	errUnknownDatabase = 1049
)

// ErrNotMigrated is returned when the results tables do not exist
var ErrNotMigrated = errors.New("results database is not migrated, run `ktest migrate`")

// MySQLStorage appends every run to a MySQL results database, next to the
// JSON file the faills viewer reads.
type MySQLStorage struct {
	cfg *config.Config
}

// NewMySQLStorage returns a Sink writing to the configured database
func NewMySQLStorage(cfg *config.Config) *MySQLStorage {
	return &MySQLStorage{cfg: cfg}
}

// Save inserts the run, one row per image and one row per test record in a
// single transaction.
func (s *MySQLStorage) Save(results []domain.ImageResult, failures []domain.TestFailure, duration time.Duration, workers int) error {
	ctx := context.Background()
	db, err := sql.Open("mysql", s.cfg.Database.DSN(true))
	if err != nil {
		return fmt.Errorf("failed to connect to results database: %w", err)
	}
	defer db.Close()

	if err := s.save(ctx, db, BuildOutput(s.cfg, results, failures, duration, workers), results); err != nil {
		return classify(err)
	}
	return nil
}

func (s *MySQLStorage) save(ctx context.Context, db *sql.DB, output *domain.TestResultsOutput, results []domain.ImageResult) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	m := output.Meta
	res, err := tx.ExecContext(ctx,
		"INSERT INTO `"+RunsTable+"` (started_at, duration_seconds, workers, total_images, failed_images, passed_tests, failed_tests, ignored_tests) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		time.Now().Add(-time.Duration(m.DurationSeconds*float64(time.Second))), m.DurationSeconds, m.Workers, m.TotalImages, m.FailedImages, m.PassedTests, m.FailedTests, m.IgnoredTests)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read run id: %w", err)
	}

	for _, img := range output.Images {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO `"+ImagesTable+"` (run_id, image_path, test_group, success, completed, timed_out, exit_status) VALUES (?, ?, ?, ?, ?, ?, ?)",
			runID, img.ImagePath, img.Group, img.Success, img.Completed, img.TimedOut, img.ExitStatus); err != nil {
			return fmt.Errorf("insert image %s: %w", img.ImagePath, err)
		}
	}

	for _, row := range recordRows(runID, results) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO `"+RecordsTable+"` (run_id, image_path, test, result, cycle_count, location, message) VALUES (?, ?, ?, ?, ?, ?, ?)",
			row...); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	return tx.Commit()
}

// recordRows returns the insert arguments for every test record
func recordRows(runID int64, results []domain.ImageResult) [][]any {
	var rows [][]any
	for _, r := range results {
		for _, rec := range r.Records {
			rows = append(rows, []any{runID, r.ImagePath, rec.Test, rec.Result, rec.CycleCount, rec.Location, rec.Message})
		}
	}
	return rows
}

// classify maps missing schema errors to ErrNotMigrated
func classify(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && (myErr.Number == errNoSuchTable || myErr.Number == errUnknownDatabase) {
		return fmt.Errorf("%w: %v", ErrNotMigrated, err)
	}
	return err
}
