package ui

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ktest/internal/domain"
)

func TestReplaceImageFailures(t *testing.T) {
	details := []domain.TestFailure{
		{TestName: "a", ImagePath: "mm"},
		{TestName: "b", ImagePath: "sched"},
		{TestName: "c", ImagePath: "mm"},
	}

	tests := []struct {
		name     string
		image    string
		fresh    []domain.TestFailure
		expected []string
	}{
		{name: "fixed", image: "mm", fresh: nil, expected: []string{"b"}},
		{name: "still failing", image: "mm", fresh: []domain.TestFailure{{TestName: "c2", ImagePath: "mm"}}, expected: []string{"c2", "b"}},
		{name: "new image", image: "irq", fresh: []domain.TestFailure{{TestName: "d", ImagePath: "irq"}}, expected: []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, f := range ReplaceImageFailures(details, tt.image, tt.fresh) {
				got = append(got, f.TestName)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("failures mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListItemText(t *testing.T) {
	open := listItemText(domain.TestFailure{TestName: "m.T"}, 0)
	if open != "[yellow]1.[white] m.T" {
		t.Errorf("unexpected text %q", open)
	}
	resolved := listItemText(domain.TestFailure{TestName: "m.T", Resolved: true}, 1)
	if resolved != "[gray]✓ [yellow]2.[gray] m.T[white]" {
		t.Errorf("unexpected text %q", resolved)
	}
}
