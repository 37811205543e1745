package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ktest/internal/config"
	"ktest/internal/domain"
)

func testResults() []domain.ImageResult {
	return []domain.ImageResult{
		{
			ImagePath: "build/mm.ktest",
			Group:     "mm",
			Completed: true,
			CleanExit: true,
			Records: []domain.Record{
				{Test: "kernel/mm.A", Result: domain.ResultPass, CycleCount: 100},
				{Test: "kernel/mm.B", Result: domain.ResultFail, Location: "mm.go:4", Message: "boom"},
				{Test: "kernel/mm.C", Result: domain.ResultIgnore},
			},
		},
		{
			ImagePath: "build/sched.ktest",
			Group:     "sched",
			Success:   true,
			Completed: true,
			CleanExit: true,
			Records: []domain.Record{
				{Test: "kernel/sched.D", Result: domain.ResultPass, CycleCount: 7},
			},
		},
	}
}

func TestBuildOutput(t *testing.T) {
	cfg := config.New()
	cfg.ProjectPath = "/project"

	out := BuildOutput(cfg, testResults(), nil, 1500*time.Millisecond, 2)

	m := out.Meta
	assert.Equal(t, 2, m.TotalImages)
	assert.Equal(t, 1, m.PassedImages)
	assert.Equal(t, 1, m.FailedImages)
	assert.Equal(t, 4, m.TotalTests)
	assert.Equal(t, 2, m.PassedTests)
	assert.Equal(t, 1, m.FailedTests)
	assert.Equal(t, 1, m.IgnoredTests)
	assert.Equal(t, 1.5, m.DurationSeconds)
	assert.Equal(t, 2, m.Workers)

	require.Len(t, out.Images, 2)
	assert.Equal(t, "/project/storage/logs/mm.log", out.Images[0].LogPath)
	assert.NotNil(t, out.Details)

	assert.Equal(t, []string{"build/mm.ktest"}, FailedImages(out))
}

func TestJSONStorage_SaveLoad(t *testing.T) {
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	st := NewJSONStorage(cfg)

	failures := []domain.TestFailure{{TestName: "kernel/mm.B", ImagePath: "build/mm.ktest", Location: "mm.go:4", File: "mm.go", Line: 4, Message: "boom"}}
	require.NoError(t, st.Save(testResults(), failures, time.Second, 2))

	loaded, err := st.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(failures, loaded.Details); diff != "" {
		t.Errorf("failures mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, loaded.Meta.TotalImages)

	loaded.Details[0].Resolved = true
	require.NoError(t, st.SaveOutput(loaded))
	again, err := st.Load()
	require.NoError(t, err)
	assert.True(t, again.Details[0].Resolved)
}

func TestJSONStorage_LoadMissing(t *testing.T) {
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()

	_, err := NewJSONStorage(cfg).Load()
	assert.Error(t, err)
}

func TestRecordRows(t *testing.T) {
	rows := recordRows(9, testResults())

	require.Len(t, rows, 4)
	want := []any{int64(9), "build/mm.ktest", "kernel/mm.B", "fail", uint64(0), "mm.go:4", "boom"}
	if diff := cmp.Diff(want, rows[1]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		notMigrated bool
	}{
		{name: "missing table", err: &mysql.MySQLError{Number: 1146, Message: "Table 'ktest_results.ktest_runs' doesn't exist"}, notMigrated: true},
		{name: "unknown database", err: &mysql.MySQLError{Number: 1049, Message: "Unknown database 'ktest_results'"}, notMigrated: true},
		{name: "access denied", err: &mysql.MySQLError{Number: 1045, Message: "Access denied"}},
		{name: "other", err: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)
			assert.Equal(t, tt.notMigrated, errors.Is(err, ErrNotMigrated))
		})
	}
}
