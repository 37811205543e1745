package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ktest/internal/config"
	"ktest/internal/domain"
	"ktest/internal/parser"
	"ktest/internal/storage"
	"ktest/internal/ui"
)

// ParseCommand handles the parse command
type ParseCommand struct {
	config    *config.Config
	parser    *parser.StreamParser
	formatter *ui.Formatter
}

// NewParseCommand creates a new ParseCommand
func NewParseCommand(cfg *config.Config, streamParser *parser.StreamParser, formatter *ui.Formatter) *ParseCommand {
	return &ParseCommand{
		config:    cfg,
		parser:    streamParser,
		formatter: formatter,
	}
}

// Execute runs the command
func (pc *ParseCommand) Execute(cmd *cobra.Command, args []string) error {
	results, err := pc.ParseLogs(args)
	if err != nil {
		return err
	}

	failures := collectFailures(pc.parser, results)
	output := storage.BuildOutput(pc.config, results, failures, 0, 0)
	for i := range output.Images {
		output.Images[i].LogPath = output.Images[i].ImagePath
	}
	pc.formatter.PrintStats(output)

	if output.Meta.FailedImages > 0 {
		return &ErrImagesFailed{Failed: output.Meta.FailedImages, Total: output.Meta.TotalImages}
	}
	return nil
}

// ParseLogs reads each captured stream. The exit status of the image is
// unknown, so only the stream decides success.
func (pc *ParseCommand) ParseLogs(paths []string) ([]domain.ImageResult, error) {
	results := make([]domain.ImageResult, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read log: %w", err)
		}

		result := domain.ImageResult{
			ImagePath: path,
			Output:    string(data),
			CleanExit: true,
		}
		pc.parser.ParseResult(&result)
		pc.report(path, result.Output)
		results = append(results, result)
	}
	return results, nil
}

// report prints stream problems that do not show up as failures
func (pc *ParseCommand) report(path, output string) {
	s, err := pc.parser.ParseString(output)
	if err != nil {
		color.Red("%s: %v", path, err)
		return
	}
	if err := pc.parser.Validate(s); err != nil {
		color.Yellow("%s: %v", path, err)
	}
	if len(s.Malformed) > 0 {
		color.Yellow("%s: %d malformed record line(s)", path, len(s.Malformed))
	}
}
