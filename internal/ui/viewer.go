package ui

import "ktest/internal/domain"

// Viewer displays run results interactively
type Viewer interface {
	View(results *domain.TestResultsOutput) error
}

var _ Viewer = (*ErrorViewer)(nil)
