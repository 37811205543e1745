package migration

import "context"

// Migrator prepares the results database
type Migrator interface {
	// Run applies pending migrations. With fresh, every table is dropped
	// and recreated first.
	Run(ctx context.Context, fresh bool) error
}
