package commands

import (
	"fmt"

	"ktest/internal/config"
	"ktest/internal/discovery"
	"ktest/internal/execution"
	"ktest/internal/parser"
	"ktest/internal/storage"
	"ktest/internal/ui"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	executor  *execution.WorkerPool
	parser    parser.Parser
	storage   storage.Storage
	database  storage.Sink
	formatter *ui.Formatter
	viewer    ui.Viewer
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	executor *execution.WorkerPool,
	parser parser.Parser,
	st storage.Storage,
	database storage.Sink,
	formatter *ui.Formatter,
	viewer ui.Viewer,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		executor:  executor,
		parser:    parser,
		storage:   st,
		database:  database,
		formatter: formatter,
		viewer:    viewer,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	images, err := rc.scanner.Scan(rc.config.GetImagePath())
	if err != nil {
		return err
	}

	// Filter images
	images = rc.filter.FilterByName(images, rc.config.Flags.NameFilter)

	if rc.config.Flags.OnlyFailed {
		last, err := rc.storage.Load()
		if err != nil {
			return fmt.Errorf("failed to load last results: %w", err)
		}
		images = onlyFailed(images, storage.FailedImages(last))
	}

	if len(images) == 0 {
		color.Yellow("No images to run")
		return nil
	}

	// Create and set progress bar
	progressBar := ui.NewProgressBar(len(images))
	rc.executor.SetProgress(progressBar)

	results, duration, err := rc.executor.ExecuteWithOptions(cmd.Context(), images, rc.config.Flags.FailFast)
	if err != nil && len(results) == 0 {
		return err
	}

	failures := collectFailures(rc.parser, results)

	// Save results
	if err := rc.storage.Save(results, failures, duration, rc.config.Processors); err != nil {
		return fmt.Errorf("failed to save test results: %w", err)
	}
	if rc.config.Flags.MySQL {
		if err := rc.database.Save(results, failures, duration, rc.config.Processors); err != nil {
			return fmt.Errorf("failed to save results to database: %w", err)
		}
	}

	// Print stats
	if err := rc.formatter.PrintMetaStats(); err != nil {
		return err
	}

	if rc.config.Flags.OpenFaills && len(failures) > 0 {
		output, err := rc.storage.Load()
		if err != nil {
			return err
		}
		if err := rc.viewer.View(output); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if failed > 0 {
		return &ErrImagesFailed{Failed: failed, Total: len(results)}
	}
	return nil
}

// onlyFailed keeps the images that also appear in failed
func onlyFailed(images, failed []string) []string {
	set := make(map[string]struct{}, len(failed))
	for _, f := range failed {
		set[f] = struct{}{}
	}
	var kept []string
	for _, image := range images {
		if _, ok := set[image]; ok {
			kept = append(kept, image)
		}
	}
	return kept
}
