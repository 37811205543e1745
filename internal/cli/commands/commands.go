package commands

import (
	"context"
	"fmt"
	"sort"

	"ktest/internal/cli"
	"ktest/internal/config"
	"ktest/internal/discovery"
	"ktest/internal/domain"
	"ktest/internal/execution"
	"ktest/internal/logging"
	"ktest/internal/migration"
	"ktest/internal/parser"
	"ktest/internal/storage"
	"ktest/internal/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Commands holds all CLI commands
type Commands struct {
	config *config.Config
	log    *zap.Logger

	Run     *RunCommand
	List    *ListCommand
	Parse   *ParseCommand
	Migrate *MigrateCommand
	Faills  *FaillsCommand
}

// NewCommands creates the command set. Dependencies are built by setup
// once flags and environment are known.
func NewCommands(cfg *config.Config) *Commands {
	return &Commands{config: cfg, log: zap.NewNop()}
}

// setup loads the environment, applies flags and wires the dependencies
func (c *Commands) setup(flags *cli.Flags) error {
	if err := c.config.LoadEnv(); err != nil {
		return err
	}
	c.config.ApplyFlags(flags.ToConfigFlags())

	log, err := logging.New(flags.Verbose)
	if err != nil {
		return err
	}
	c.log = log

	cfg := c.config
	scanner := discovery.NewScanner(cfg.PathsToIgnore, cfg.ImageSuffix)
	filter := discovery.NewFilter()
	testCaseParser := discovery.NewParser()
	runner := execution.NewRunner(cfg, log)
	scheduler := execution.NewRoundRobinScheduler()
	streamParser := parser.NewStreamParser()
	executor := execution.NewWorkerPool(cfg, runner, scheduler, streamParser, log)
	jsonStorage := storage.NewJSONStorage(cfg)
	mysqlStorage := storage.NewMySQLStorage(cfg)
	formatter := ui.NewFormatter(cfg, testCaseParser)
	dbManager := migration.NewDatabaseManager(cfg)
	migrator := migration.NewSchemaMigrator(cfg, dbManager)
	errorViewer := ui.NewErrorViewer(cfg, jsonStorage, rerunner(runner, streamParser))

	c.Run = NewRunCommand(cfg, scanner, filter, executor, streamParser, jsonStorage, mysqlStorage, formatter, errorViewer)
	c.List = NewListCommand(cfg, scanner, filter, formatter, jsonStorage)
	c.Parse = NewParseCommand(cfg, streamParser, formatter)
	c.Migrate = NewMigrateCommand(cfg, migrator)
	c.Faills = NewFaillsCommand(cfg, jsonStorage, errorViewer)
	return nil
}

// rerunner boots a single image again for the faills viewer
func rerunner(runner execution.ImageRunner, streamParser *parser.StreamParser) ui.Rerunner {
	return func(imagePath string) ([]domain.TestFailure, error) {
		result := runner.Run(context.Background(), imagePath, 1)
		streamParser.ParseResult(&result)
		if result.Success {
			return nil, nil
		}
		return streamParser.ParseFailure(result), nil
	}
}

// collectFailures sorts results by image and returns the failures of the
// images that did not succeed
func collectFailures(p parser.Parser, results []domain.ImageResult) []domain.TestFailure {
	sort.Slice(results, func(i, j int) bool {
		return results[i].ImagePath < results[j].ImagePath
	})

	var failures []domain.TestFailure
	for _, result := range results {
		if !result.Success {
			failures = append(failures, p.ParseFailure(result)...)
		}
	}
	return failures
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags) {
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().BoolVar(&flags.Verbose, "verbose", false, "Enable debug logging on stderr")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return c.setup(flags)
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = c.log.Sync()
	}

	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run test images in parallel",
		Long:  "Discover test images and boot each one under the emulator using parallel workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run.Execute(cmd, args)
		},
	}
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", config.DefaultProcessors, "Number of emulators to run at once")
	runCmd.Flags().StringVarP(&flags.ImagePath, "image-path", "t", "", "Path to the folder where image detection should start")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter images by name pattern (supports wildcards, e.g., 'mm*' or '*sched*')")
	runCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Wall-clock limit per image (default from KTEST_TIMEOUT or 2m)")
	runCmd.Flags().StringVar(&flags.Emulator, "emulator", "", "Emulator binary (default from KTEST_EMULATOR or qemu-system-x86_64)")
	runCmd.Flags().StringVar(&flags.Kernel, "kernel", "", "Kernel booted with each image as its init (default from KTEST_KERNEL)")
	runCmd.Flags().BoolVar(&flags.Host, "host", false, "Run images directly on the host instead of under the emulator")
	runCmd.Flags().BoolVar(&flags.StrictExit, "strict", false, "Ask images to exit with a failure status when a test fails (host mode)")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop on first failed image")
	runCmd.Flags().BoolVar(&flags.OnlyFailed, "failed", false, "Run only images that failed in the last run (from storage/test-results.json)")
	runCmd.Flags().BoolVar(&flags.MySQL, "mysql", false, "Also save the run to the MySQL results database")
	runCmd.Flags().BoolVar(&flags.OpenFaills, "open-faills", false, "Open the faills viewer when the run finishes with failures")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered test images",
		Long: "Scan and list all test images without booting them.\n\n" +
			"With -c, tests are read from each image's ELF symbol table: only top-level functions " +
			"named Test* are listed. Tests registered as closures or under explicit names are not " +
			"shown; boot the image with run to see every registered test.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.List.Execute(cmd, args)
		},
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter images (or, with -c, tests) by name pattern")
	listCmd.Flags().StringVarP(&flags.ImagePath, "image-path", "t", "", "Path to the folder where image detection should start")
	listCmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "c", false, "List the Test* functions in each image's symbol table")
	rootCmd.AddCommand(listCmd)

	// Parse command
	parseCmd := &cobra.Command{
		Use:   "parse <log>...",
		Short: "Parse captured test streams",
		Long:  "Read debug console logs written by test images and print their statistics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Parse.Execute(cmd, args)
		},
	}
	rootCmd.AddCommand(parseCmd)

	// Migrate command
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the results database and tables",
		Long:  "Create the MySQL results database if needed and apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Migrate.Execute(cmd, args)
		},
	}
	migrateCmd.Flags().BoolVar(&flags.Fresh, "fresh", false, "Drop all results tables before migrating")
	rootCmd.AddCommand(migrateCmd)

	// Faills command
	faillsCmd := &cobra.Command{
		Use:   "faills",
		Short: "View test failures interactively",
		Long:  "Display test failures from the last run in an interactive viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Faills.Execute(cmd, args)
		},
	}
	rootCmd.AddCommand(faillsCmd)
}

// ErrImagesFailed is returned by run when at least one image failed
type ErrImagesFailed struct {
	Failed int
	Total  int
}

func (e *ErrImagesFailed) Error() string {
	return fmt.Sprintf("%d of %d image(s) failed", e.Failed, e.Total)
}
