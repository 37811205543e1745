package ui

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ktest/internal/config"
	"ktest/internal/domain"
)

func TestBuildFailureTree(t *testing.T) {
	failures := []domain.TestFailure{
		{TestName: "example.com/kernel/mm.TestAlloc"},
		{TestName: "example.com/kernel/mm.TestFree"},
		{TestName: "example.com/kernel/sched.TestYield"},
		{TestName: "sched (image)", ImagePath: "build/sched.ktest"},
	}

	root := buildFailureTree(failures)

	kernel := root.Children["example.com"].Children["kernel"]
	if kernel == nil {
		t.Fatalf("expected example.com/kernel in the tree")
	}
	mm := kernel.Children["mm"]
	if mm == nil || !mm.IsModule || len(mm.Failures) != 2 {
		t.Fatalf("expected two failures under mm, got %+v", mm)
	}
	if kernel.IsModule {
		t.Error("intermediate path elements must not be modules")
	}

	image := root.Children["sched.ktest"]
	if image == nil || len(image.Failures) != 1 {
		t.Fatalf("expected image failure keyed by image name, got %v", root.Children)
	}
}

func TestFormatter_FailedPathSet(t *testing.T) {
	cfg := config.New()
	cfg.ProjectPath = "/project"
	f := NewFormatter(cfg, nil)

	output := &domain.TestResultsOutput{Images: []domain.ImageSummary{
		{ImagePath: "/project/build/mm.ktest", Success: false},
		{ImagePath: "/project/build/sched.ktest", Success: true},
		{ImagePath: "/elsewhere/irq.ktest", Success: false},
	}}

	got := f.FailedPathSet(output)
	want := map[string]struct{}{
		"build/mm.ktest":       {},
		"/elsewhere/irq.ktest": {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("failed set mismatch (-want +got):\n%s", diff)
	}
}
