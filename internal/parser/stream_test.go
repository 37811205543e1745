package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ktest/internal/domain"
)

const completeStream = `SeaBIOS (version 1.16.3)
Booting from ROM..
{ "test_group": "mm", "test_count": 3 }
{ "test": "kernel/mm.A", "result": "pass", "cycle_count": 1200 }
{ "test": "kernel/mm.B", "result": "fail", "cycle_count": 0, "location": "kernel/mm/alloc.go:42", "message": "boom" }
{ "test": "kernel/sched.C", "result": "ignore", "cycle_count": 0 }
`

func TestStreamParser_Parse(t *testing.T) {
	p := NewStreamParser()

	s, err := p.ParseString(completeStream)
	require.NoError(t, err)

	assert.True(t, s.HasGroup)
	assert.Equal(t, "mm", s.Group)
	assert.Equal(t, 3, s.Declared)
	assert.Equal(t, []string{"SeaBIOS (version 1.16.3)", "Booting from ROM.."}, s.Noise)
	assert.Empty(t, s.Malformed)

	want := []domain.Record{
		{Test: "kernel/mm.A", Result: "pass", CycleCount: 1200},
		{Test: "kernel/mm.B", Result: "fail", Location: "kernel/mm/alloc.go:42", Message: "boom"},
		{Test: "kernel/sched.C", Result: "ignore"},
	}
	if diff := cmp.Diff(want, s.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, p.Validate(s))
}

func TestStreamParser_Malformed(t *testing.T) {
	p := NewStreamParser()

	s, err := p.ParseString("{ \"test_group\": \"g\", \"test_count\": 1 }\n{ \"test\": \"a\", \"res\n{}\n")
	require.NoError(t, err)

	assert.Len(t, s.Malformed, 2)
	assert.Empty(t, s.Records)
	assert.ErrorIs(t, p.Validate(s), ErrIncomplete)
}

func TestStreamParser_Validate(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		err    string
	}{
		{
			name:   "complete",
			stream: completeStream,
		},
		{
			name:   "empty group",
			stream: `{ "test_group": "g", "test_count": 0 }`,
		},
		{
			name:   "no group",
			stream: `{ "test": "a", "result": "pass", "cycle_count": 1 }`,
			err:    ErrNoGroup.Error(),
		},
		{
			name:   "incomplete",
			stream: "{ \"test_group\": \"g\", \"test_count\": 2 }\n{ \"test\": \"a\", \"result\": \"pass\", \"cycle_count\": 1 }",
			err:    "1 of 2 tests",
		},
		{
			name:   "too many",
			stream: "{ \"test_group\": \"g\", \"test_count\": 0 }\n{ \"test\": \"a\", \"result\": \"pass\", \"cycle_count\": 1 }",
			err:    "group declared 0",
		},
		{
			name:   "duplicate",
			stream: "{ \"test_group\": \"g\", \"test_count\": 2 }\n{ \"test\": \"a\", \"result\": \"pass\", \"cycle_count\": 1 }\n{ \"test\": \"a\", \"result\": \"pass\", \"cycle_count\": 1 }",
			err:    "reported twice",
		},
		{
			name:   "two groups",
			stream: "{ \"test_group\": \"g\", \"test_count\": 0 }\n{ \"test_group\": \"h\", \"test_count\": 0 }",
			err:    "2 test group records",
		},
	}

	p := NewStreamParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := p.ParseString(tt.stream)
			require.NoError(t, err)

			err = p.Validate(s)
			if tt.err == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestStreamParser_ParseResult(t *testing.T) {
	tests := []struct {
		name      string
		result    domain.ImageResult
		success   bool
		completed bool
	}{
		{
			name:      "clean run with a failure",
			result:    domain.ImageResult{Output: completeStream, CleanExit: true},
			success:   false,
			completed: true,
		},
		{
			name:      "clean run without failures",
			result:    domain.ImageResult{Output: "{ \"test_group\": \"g\", \"test_count\": 1 }\n{ \"test\": \"a\", \"result\": \"pass\", \"cycle_count\": 1 }\n", CleanExit: true},
			success:   true,
			completed: true,
		},
		{
			name:      "bad exit status",
			result:    domain.ImageResult{Output: "{ \"test_group\": \"g\", \"test_count\": 0 }\n"},
			success:   false,
			completed: true,
		},
		{
			name:      "timed out",
			result:    domain.ImageResult{Output: "{ \"test_group\": \"g\", \"test_count\": 0 }\n", CleanExit: true, TimedOut: true},
			success:   false,
			completed: true,
		},
		{
			name:      "no output",
			result:    domain.ImageResult{CleanExit: true},
			success:   false,
			completed: false,
		},
	}

	p := NewStreamParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.result
			p.ParseResult(&result)
			assert.Equal(t, tt.success, result.Success)
			assert.Equal(t, tt.completed, result.Completed)
		})
	}
}

func TestStreamParser_ParseFailure(t *testing.T) {
	p := NewStreamParser()

	t.Run("fail records", func(t *testing.T) {
		result := domain.ImageResult{ImagePath: "build/mm.ktest", Output: completeStream, CleanExit: true}
		p.ParseResult(&result)

		want := []domain.TestFailure{{
			TestName:  "kernel/mm.B",
			ImagePath: "build/mm.ktest",
			Group:     "mm",
			Location:  "kernel/mm/alloc.go:42",
			File:      "kernel/mm/alloc.go",
			Line:      42,
			Message:   "boom",
		}}
		if diff := cmp.Diff(want, p.ParseFailure(result)); diff != "" {
			t.Errorf("failures mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("strict exit with failures adds nothing", func(t *testing.T) {
		result := domain.ImageResult{Output: completeStream, ExitStatus: 35}
		p.ParseResult(&result)
		assert.Len(t, p.ParseFailure(result), 1)
	})

	t.Run("incomplete image", func(t *testing.T) {
		result := domain.ImageResult{
			ImagePath:  "build/sched.ktest",
			Output:     "{ \"test_group\": \"sched\", \"test_count\": 4 }\n",
			ExitStatus: 35,
		}
		p.ParseResult(&result)

		failures := p.ParseFailure(result)
		require.Len(t, failures, 1)
		assert.Equal(t, "sched (image)", failures[0].TestName)
		assert.Contains(t, failures[0].Message, "status 35")
	})

	t.Run("timeout", func(t *testing.T) {
		result := domain.ImageResult{ImagePath: "build/hang.ktest", TimedOut: true, Duration: 2 * time.Second}
		p.ParseResult(&result)

		failures := p.ParseFailure(result)
		require.Len(t, failures, 1)
		assert.Equal(t, "build/hang.ktest", failures[0].TestName)
		assert.Equal(t, "image timed out after 2s", failures[0].Message)
	})

	t.Run("run error", func(t *testing.T) {
		result := domain.ImageResult{ImagePath: "x.ktest", Error: errors.New("exec: qemu not found")}
		p.ParseResult(&result)

		failures := p.ParseFailure(result)
		require.Len(t, failures, 1)
		assert.True(t, strings.HasSuffix(failures[0].Message, "qemu not found"))
	})
}

func TestStreamParser_ParseTestCounts(t *testing.T) {
	p := NewStreamParser()

	result := domain.ImageResult{Output: completeStream, CleanExit: true}
	p.ParseResult(&result)
	passed, failed := p.ParseTestCounts(result)
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)

	empty := domain.ImageResult{}
	p.ParseResult(&empty)
	passed, failed = p.ParseTestCounts(empty)
	assert.Equal(t, 0, passed)
	assert.Equal(t, 1, failed)
}

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		input string
		file  string
		line  int
	}{
		{input: "kernel/mm/alloc.go:42", file: "kernel/mm/alloc.go", line: 42},
		{input: "unknown location", file: "", line: 0},
		{input: "", file: "", line: 0},
		{input: "alloc.go", file: "alloc.go", line: 0},
		{input: "C:/src/alloc.go:7", file: "C:/src/alloc.go", line: 7},
		{input: "alloc.go:x", file: "alloc.go:x", line: 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			file, line := SplitLocation(tt.input)
			if file != tt.file || line != tt.line {
				t.Errorf("expected (%s, %d), got (%s, %d)", tt.file, tt.line, file, line)
			}
		})
	}
}
