package main

import (
	"errors"
	"fmt"
	"os"

	"ktest/internal/cli"
	"ktest/internal/cli/commands"
	"ktest/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:           "ktest",
		Short:         "Parallel kernel test image runner",
		Long:          `Boot kernel test images under an emulator in parallel, collect the structured result stream each image writes to its debug console, and report, store and browse the results.`,
		Version:       version,
		SilenceErrors: true,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands and register them; dependencies are wired once flags are parsed
	cmds := commands.NewCommands(cfg)
	cmds.Register(rootCmd, &flags)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		var failed *commands.ErrImagesFailed
		if !errors.As(err, &failed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
