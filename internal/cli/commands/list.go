package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ktest/internal/config"
	"ktest/internal/discovery"
	"ktest/internal/storage"
	"ktest/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	formatter *ui.Formatter
	storage   storage.Storage
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	formatter *ui.Formatter,
	st storage.Storage,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		formatter: formatter,
		storage:   st,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	images, err := lc.scanner.Scan(lc.config.GetImagePath())
	if err != nil {
		return err
	}

	pattern := lc.config.Flags.NameFilter
	var testFilter func([]string) []string
	if lc.config.Flags.TestCases && pattern != "" {
		// With -c the pattern selects tests, not images
		testFilter = func(names []string) []string {
			return lc.filter.FilterTestCases(names, pattern)
		}
	} else {
		images = lc.filter.FilterByName(images, pattern)
	}

	if len(images) == 0 {
		color.Yellow("No images found")
		return nil
	}

	// Mark images that failed last time, when results exist
	var failedPaths map[string]struct{}
	if last, err := lc.storage.Load(); err == nil {
		failedPaths = lc.formatter.FailedPathSet(last)
	}

	if err := lc.formatter.PrintTestList(images, lc.config.Flags.TestCases, failedPaths, testFilter); err != nil {
		return err
	}

	if lc.config.Flags.TestCases && testFilter == nil {
		// Unreadable images were already reported above
		if total, err := lc.formatter.CountTestCases(images); err == nil {
			color.Green("\n%d test(s) in %d image(s)", total, len(images))
		}
	}
	return nil
}
