package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"ktest/harness"
	"ktest/internal/config"
	"ktest/internal/discovery"
	"ktest/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	parser *discovery.Parser
}

// NewFormatter creates a new Formatter
func NewFormatter(cfg *config.Config, parser *discovery.Parser) *Formatter {
	return &Formatter{
		config: cfg,
		parser: parser,
	}
}

// PrintMetaStats reads and displays statistics from the JSON results file
func (f *Formatter) PrintMetaStats() error {
	// Clear terminal screen
	fmt.Print("\033[2J\033[H")

	outputPath := f.config.GetOutputPath()

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}

	var output domain.TestResultsOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	f.PrintStats(&output)
	return nil
}

// PrintStats displays the statistics of a run
func (f *Formatter) PrintStats(output *domain.TestResultsOutput) {
	meta := output.Meta

	// Print header
	fmt.Print("\n")
	color.Cyan("╔═══════════════════════════════════════════════════════════════╗")
	color.Cyan("║                    Test Execution Statistics                  ║")
	color.Cyan("╚═══════════════════════════════════════════════════════════════╝\n")

	fmt.Println("┌─────────────────────────────────┬─────────────────────────────┐")
	row(color.White, "Total Images", meta.TotalImages)
	row(color.Green, "Passed Images", meta.PassedImages)
	row(color.Red, "Failed Images", meta.FailedImages)
	row(color.White, "Total Tests", meta.TotalTests)
	row(color.Green, "Passed Tests", meta.PassedTests)
	row(color.Red, "Failed Tests", meta.FailedTests)
	row(color.Yellow, "Ignored Tests", meta.IgnoredTests)
	row(color.White, "Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds))
	row(color.White, "Workers", meta.Workers)
	fmt.Printf("│ %-31s │ ", "Timestamp")
	color.White("%-27s │\n", meta.Timestamp)
	fmt.Println("└─────────────────────────────────┴─────────────────────────────┘")

	// Print summary line
	fmt.Println()
	if meta.FailedImages == 0 {
		color.Green("✓ All tests passed!")
		return
	}
	color.Red("✗ %d image(s) failed with %d failure(s)", meta.FailedImages, len(output.Details))
	fmt.Println()
	f.printFailedTestsTree(output.Details)
}

// row prints one table row followed by a separator
func row(printValue func(string, ...interface{}), label string, value any) {
	fmt.Printf("│ %-31s │ ", label)
	printValue("%-27v │\n", value)
	fmt.Println("├─────────────────────────────────┼─────────────────────────────┤")
}

// TreeNode represents a node in the module tree
type TreeNode struct {
	Name     string
	Children map[string]*TreeNode
	Failures []domain.TestFailure
	IsModule bool // Leaf module holding failures
}

// buildFailureTree groups failures by module path element
func buildFailureTree(failures []domain.TestFailure) *TreeNode {
	root := &TreeNode{Children: make(map[string]*TreeNode)}

	for _, failure := range failures {
		module, _ := harness.SplitQualifiedName(failure.TestName)
		parts := harness.SplitModulePath(module)
		if len(parts) == 0 {
			parts = []string{filepath.Base(failure.ImagePath)}
		}

		current := root
		for _, part := range parts {
			if current.Children[part] == nil {
				current.Children[part] = &TreeNode{
					Name:     part,
					Children: make(map[string]*TreeNode),
				}
			}
			current = current.Children[part]
		}
		current.IsModule = true
		current.Failures = append(current.Failures, failure)
	}
	return root
}

// printFailedTestsTree prints failed tests grouped by module
func (f *Formatter) printFailedTestsTree(failures []domain.TestFailure) {
	if len(failures) == 0 {
		return
	}
	f.printTreeNode(buildFailureTree(failures), "")
}

func (f *Formatter) printTreeNode(node *TreeNode, prefix string) {
	// Sort children for consistent output
	var keys []string
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		child := node.Children[key]
		isLast := i == len(keys)-1

		connector, next := "├── ", "│   "
		if isLast {
			connector, next = "└── ", "    "
		}
		if child.IsModule {
			color.Yellow("%s%s%s", prefix, connector, child.Name)
		} else {
			color.Cyan("%s%s%s", prefix, connector, child.Name)
		}

		for j, failure := range child.Failures {
			caseConnector := "├── "
			if j == len(child.Failures)-1 && len(child.Children) == 0 {
				caseConnector = "└── "
			}
			_, name := harness.SplitQualifiedName(failure.TestName)
			fmt.Printf("%s%s%s %s\n", prefix+next, caseConnector, color.RedString(name), color.HiBlackString(failure.Location))
		}

		f.printTreeNode(child, prefix+next)
	}
}

// CountTestCases returns the total number of tests across the given images.
func (f *Formatter) CountTestCases(images []string) (int, error) {
	var total int
	for _, image := range images {
		cases, err := f.parser.FindTestCases(image)
		if err != nil {
			return 0, err
		}
		total += len(cases)
	}
	return total, nil
}

// normalizedPathForKey returns a path key for matching images across runs.
func normalizedPathForKey(projectPath, path string) string {
	p := path
	if projectPath != "" {
		if rel, err := filepath.Rel(projectPath, path); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// FailedPathSet returns the keys of the images that failed in output
func (f *Formatter) FailedPathSet(output *domain.TestResultsOutput) map[string]struct{} {
	set := make(map[string]struct{})
	for _, img := range output.Images {
		if !img.Success {
			set[normalizedPathForKey(f.config.ProjectPath, img.ImagePath)] = struct{}{}
		}
	}
	return set
}

// PrintTestList prints a list of images, optionally with their tests.
// failedPaths is optional; if set, images in this set are marked with [F] in red (from last run).
func (f *Formatter) PrintTestList(images []string, showTestCases bool, failedPaths map[string]struct{}, filter func([]string) []string) error {
	if showTestCases {
		color.Green("Found %d image(s) with tests:\n", len(images))
	} else {
		color.Green("Found %d image(s):\n", len(images))
	}

	for i, image := range images {
		// Get relative path for cleaner display
		relPath, err := filepath.Rel(f.config.ProjectPath, image)
		if err != nil {
			relPath = image
		}

		failMarker := ""
		if len(failedPaths) > 0 {
			if _, ok := failedPaths[normalizedPathForKey(f.config.ProjectPath, image)]; ok {
				failMarker = " " + color.RedString("[F]")
			}
		}

		isLastImage := i == len(images)-1
		if isLastImage {
			color.Cyan("└── %s%s", relPath, failMarker)
		} else {
			color.Cyan("├── %s%s", relPath, failMarker)
		}

		if !showTestCases {
			continue
		}

		testCases, err := f.parser.FindTestCases(image)
		if err != nil {
			color.Red("Error reading image %s: %v", image, err)
			continue
		}
		if filter != nil {
			testCases = filter(testCases)
		}

		branch := "│   "
		if isLastImage {
			branch = "    "
		}
		if len(testCases) == 0 {
			fmt.Printf("%s└── %s\n", branch, color.RedString("(no tests found)"))
		}
		groups := discovery.GroupByModule(testCases)
		modules := make([]string, 0, len(groups))
		for module := range groups {
			modules = append(modules, module)
		}
		sort.Strings(modules)
		for j, module := range modules {
			leaf, indent := "├── ", "│   "
			if j == len(modules)-1 {
				leaf, indent = "└── ", "    "
			}
			fmt.Printf("%s%s%s\n", branch, leaf, color.CyanString(module))
			names := groups[module]
			for k, name := range names {
				testLeaf := "├── "
				if k == len(names)-1 {
					testLeaf = "└── "
				}
				fmt.Printf("%s%s%s%s\n", branch, indent, testLeaf, color.YellowString(name))
			}
		}

		// Add spacing between images (except for the last one)
		if !isLastImage {
			fmt.Println()
		}
	}

	return nil
}
