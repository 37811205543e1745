package discovery

import (
	"path/filepath"
	"strings"
)

// Filter filters images and test names by pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName filters images by name pattern using wildcard matching
// Supports patterns like "mm*.ktest" or "*sched*"
func (f *Filter) FilterByName(tests []string, pattern string) []string {
	if pattern == "" {
		return tests
	}

	var filtered []string

	for _, test := range tests {
		if f.Match(filepath.Base(test), pattern) {
			filtered = append(filtered, test)
		}
	}

	return filtered
}

// FilterTestCases filters qualified test names by pattern, matched against
// the whole name
func (f *Filter) FilterTestCases(names []string, pattern string) []string {
	if pattern == "" {
		return names
	}

	var filtered []string
	for _, name := range names {
		if f.Match(name, pattern) {
			filtered = append(filtered, name)
		}
	}
	return filtered
}

// Match reports whether testName matches pattern
func (f *Filter) Match(testName, pattern string) bool {
	// Try filepath.Match first (supports * and ? wildcards)
	matched, err := filepath.Match(pattern, testName)
	if err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") {
		// Every non-empty part between wildcards must occur in the name
		for _, part := range strings.Split(pattern, "*") {
			if part != "" && !strings.Contains(testName, part) {
				return false
			}
		}
		return true
	}

	// If no wildcards, do a simple contains check
	if !strings.Contains(pattern, "?") {
		return strings.Contains(testName, pattern)
	}
	return false
}
