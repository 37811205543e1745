package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"ktest/internal/config"
)

// DatabaseManager manages the results database
type DatabaseManager struct {
	config *config.Config
}

// NewDatabaseManager creates a new DatabaseManager
func NewDatabaseManager(cfg *config.Config) *DatabaseManager {
	return &DatabaseManager{config: cfg}
}

// EnsureDatabase creates the results database if it does not exist. It
// reports whether the database was created.
func (dm *DatabaseManager) EnsureDatabase(ctx context.Context) (bool, error) {
	dbName := dm.config.Database.Name
	if !isValidDatabaseName(dbName) {
		return false, fmt.Errorf("invalid database name: %s", dbName)
	}

	// Connect to MySQL server (without specifying database)
	db, err := sql.Open("mysql", dm.config.Database.DSN(false))
	if err != nil {
		return false, fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return false, fmt.Errorf("failed to ping database server: %w", err)
	}

	exists, err := dm.databaseExists(ctx, db, dbName)
	if err != nil {
		return false, fmt.Errorf("failed to check database %s: %w", dbName, err)
	}
	if exists {
		return false, nil
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dbName)); err != nil {
		return false, fmt.Errorf("failed to create database %s: %w", dbName, err)
	}
	return true, nil
}

// Open connects to the results database
func (dm *DatabaseManager) Open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("mysql", dm.config.Database.DSN(true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to results database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping results database: %w", err)
	}
	return db, nil
}

// databaseExists checks if a database exists
func (dm *DatabaseManager) databaseExists(ctx context.Context, db *sql.DB, dbName string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, dbName).Scan(&exists)
	return exists, err
}

// isValidDatabaseName allows only names that are safe to quote with backticks
func isValidDatabaseName(name string) bool {
	if len(name) == 0 || len(name) > 64 {
		return false
	}
	for _, c := range name {
		if !(c == '_' || c == '$' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return !strings.HasPrefix(name, "$")
}
