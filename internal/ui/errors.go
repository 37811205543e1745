package ui

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"ktest/internal/config"
	"ktest/internal/domain"
	"ktest/internal/storage"
)

// logTailLines is the number of stream lines shown with a failure
const logTailLines = 15

// Rerunner boots an image again and returns its failures
type Rerunner func(imagePath string) ([]domain.TestFailure, error)

// ErrorViewer displays test failures in an interactive TUI
type ErrorViewer struct {
	config  *config.Config
	storage storage.Storage
	rerun   Rerunner
}

// NewErrorViewer creates a new ErrorViewer. rerun may be nil.
func NewErrorViewer(cfg *config.Config, st storage.Storage, rerun Rerunner) *ErrorViewer {
	return &ErrorViewer{
		config:  cfg,
		storage: st,
		rerun:   rerun,
	}
}

// View displays test failures in an interactive TUI
func (ev *ErrorViewer) View(results *domain.TestResultsOutput) error {
	if len(results.Details) == 0 {
		color.Green("✓ No test failures found!")
		return nil
	}

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	// Stats header (image and test)
	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	// Container with right padding for the details view
	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	// List on left (1/3), details on right (2/3)
	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	updateHeader := func(status string) {
		keys := "Use ↑↓ to navigate, [yellow]R[white] to mark resolved"
		if ev.rerun != nil {
			keys += ", [yellow]X[white] to re-run the image"
		}
		text := fmt.Sprintf(" Test Failures (%d total, %d unresolved) | %s, → to view details, ← to go back, Ctrl+C to exit ",
			len(results.Details), countUnresolved(results.Details), keys)
		if status != "" {
			text += "| " + status
		}
		headerView.SetText(text)
	}

	fillList := func() {
		current := list.GetCurrentItem()
		list.Clear()
		for i, failure := range results.Details {
			list.AddItem(listItemText(failure, i), "", 0, nil)
		}
		if current >= 0 && current < list.GetItemCount() {
			list.SetCurrentItem(current)
		}
	}

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(results.Details) {
			statsView.SetText("")
			detailsView.SetText("")
			return
		}
		failure := results.Details[index]
		statsView.SetText(ev.formatFailureStats(failure, index+1))
		detailsView.SetText(ev.formatFailureDetails(failure, logPathFor(results, failure.ImagePath)))
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp, tcell.KeyDown:
			return event
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			index := list.GetCurrentItem()
			if index < 0 || index >= len(results.Details) {
				return event
			}
			switch event.Rune() {
			case 'r', 'R':
				results.Details[index].Resolved = !results.Details[index].Resolved
				list.SetItemText(index, listItemText(results.Details[index], index), "")
				status := ""
				if err := ev.storage.SaveOutput(results); err != nil {
					status = "[red]save failed: " + tview.Escape(err.Error()) + "[white]"
				}
				updateHeader(status)
				updateDetails()
				return nil
			case 'x', 'X':
				if ev.rerun == nil {
					return nil
				}
				image := results.Details[index].ImagePath
				status := ev.rerunImage(results, image)
				fillList()
				updateHeader(status)
				updateDetails()
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		updateDetails()
	})

	fillList()
	updateHeader("")
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}

// rerunImage boots image again, replaces its failures and saves the
// results. It returns a status line for the header.
func (ev *ErrorViewer) rerunImage(results *domain.TestResultsOutput, image string) string {
	failures, err := ev.rerun(image)
	if err != nil {
		return "[red]re-run failed: " + tview.Escape(err.Error()) + "[white]"
	}
	results.Details = ReplaceImageFailures(results.Details, image, failures)
	for i := range results.Images {
		if results.Images[i].ImagePath == image {
			results.Images[i].Success = len(failures) == 0
		}
	}
	if err := ev.storage.SaveOutput(results); err != nil {
		return "[red]save failed: " + tview.Escape(err.Error()) + "[white]"
	}
	if len(failures) == 0 {
		return "[green]image passed[white]"
	}
	return fmt.Sprintf("[red]image still has %d failure(s)[white]", len(failures))
}

// ReplaceImageFailures swaps the failures of image in details for fresh,
// keeping the position of the first old failure.
func ReplaceImageFailures(details []domain.TestFailure, image string, fresh []domain.TestFailure) []domain.TestFailure {
	out := make([]domain.TestFailure, 0, len(details)+len(fresh))
	inserted := false
	for _, d := range details {
		if d.ImagePath != image {
			out = append(out, d)
			continue
		}
		if !inserted {
			out = append(out, fresh...)
			inserted = true
		}
	}
	if !inserted {
		out = append(out, fresh...)
	}
	return out
}

func countUnresolved(failures []domain.TestFailure) int {
	count := 0
	for _, f := range failures {
		if !f.Resolved {
			count++
		}
	}
	return count
}

func listItemText(failure domain.TestFailure, index int) string {
	testName := failure.TestName
	if testName == "" {
		testName = fmt.Sprintf("Test %d", index+1)
	}
	testName = tview.Escape(testName)
	if failure.Resolved {
		return fmt.Sprintf("[gray]✓ [yellow]%d.[gray] %s[white]", index+1, testName)
	}
	return fmt.Sprintf("[yellow]%d.[white] %s", index+1, testName)
}

func logPathFor(results *domain.TestResultsOutput, image string) string {
	for _, img := range results.Images {
		if img.ImagePath == image {
			return img.LogPath
		}
	}
	return ""
}

// formatFailureDetails formats a test failure for display using tview color tags ([red], [cyan], etc.)
func (ev *ErrorViewer) formatFailureDetails(failure domain.TestFailure, logPath string) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "[red]✗ Test: %s[white]\n\n", tview.Escape(failure.TestName))

	fmt.Fprintf(w, "[cyan]Image: %s[white]\n", tview.Escape(failure.ImagePath))
	if failure.Group != "" {
		fmt.Fprintf(w, "[cyan]Group: %s[white]\n", tview.Escape(failure.Group))
	}
	if failure.File != "" && failure.Line > 0 {
		fmt.Fprintf(w, "[yellow]Location: %s:%d[white]\n", tview.Escape(failure.File), failure.Line)
	} else if failure.Location != "" {
		fmt.Fprintf(w, "[yellow]Location: %s[white]\n", tview.Escape(failure.Location))
	}
	fmt.Fprintf(w, "\n")

	if failure.Message != "" {
		fmt.Fprintf(w, "[yellow]Message:[white]\n%s\n\n", tview.Escape(failure.Message))
	}

	if logPath != "" {
		if data, err := os.ReadFile(logPath); err == nil {
			lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			fmt.Fprintf(w, "[yellow]Stream (%s):[white]\n", tview.Escape(logPath))
			if len(lines) > logTailLines {
				fmt.Fprintf(w, "  [gray]... %d earlier lines[white]\n", len(lines)-logTailLines)
				lines = lines[len(lines)-logTailLines:]
			}
			for _, line := range lines {
				fmt.Fprintf(w, "  %s\n", tview.Escape(line))
			}
		}
	}

	w.Flush()
	return builder.String()
}

// formatFailureStats formats the stats header for a test failure
func (ev *ErrorViewer) formatFailureStats(failure domain.TestFailure, number int) string {
	image := failure.ImagePath
	if image == "" {
		image = "Unknown image"
	}

	testCase := failure.TestName
	if testCase == "" {
		testCase = fmt.Sprintf("Test %d", number)
	}

	return fmt.Sprintf("[cyan]image:[white] [yellow]%s[white]::[yellow]%s[white]\n", tview.Escape(image), tview.Escape(testCase))
}
