package commands

import (
	"github.com/spf13/cobra"

	"ktest/internal/config"
	"ktest/internal/migration"
)

// MigrateCommand handles the migrate command
type MigrateCommand struct {
	config   *config.Config
	migrator migration.Migrator
}

// NewMigrateCommand creates a new MigrateCommand
func NewMigrateCommand(cfg *config.Config, migrator migration.Migrator) *MigrateCommand {
	return &MigrateCommand{
		config:   cfg,
		migrator: migrator,
	}
}

// Execute runs the command
func (mc *MigrateCommand) Execute(cmd *cobra.Command, args []string) error {
	return mc.migrator.Run(cmd.Context(), mc.config.Flags.Fresh)
}
