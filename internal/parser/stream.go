package parser

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"ktest/internal/domain"
)

// unknownLocation is written by the harness when a fault has no location
const unknownLocation = "unknown location"

// maxLineSize bounds a single line of captured output. Records are at most
// 1 KiB, but kernel console noise on the same channel can be longer.
const maxLineSize = 1 << 20

var (
	// ErrNoGroup is returned for a stream without a test group record
	ErrNoGroup = errors.New("stream has no test group record")
	// ErrIncomplete is returned when fewer tests reported than the group declared
	ErrIncomplete = errors.New("stream ended before every test reported")
)

// Stream is a parsed structured stream
type Stream struct {
	Group     string
	Declared  int
	HasGroup  bool
	Groups    int             // Number of group records seen
	Records   []domain.Record // Test records in stream order
	Noise     []string        // Lines that are not records
	Malformed []string        // Lines that look like records but do not decode
}

// StreamParser parses the structured stream captured from a test image
type StreamParser struct{}

// NewStreamParser creates a new StreamParser
func NewStreamParser() *StreamParser {
	return &StreamParser{}
}

// Parse reads a stream. Lines that are not records (console output sharing
// the channel) are kept as noise rather than treated as errors.
func (p *StreamParser) Parse(r io.Reader) (*Stream, error) {
	s := &Stream{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "{") {
			s.Noise = append(s.Noise, line)
			continue
		}

		var rec domain.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			s.Malformed = append(s.Malformed, line)
			continue
		}
		switch {
		case rec.IsGroup():
			s.Groups++
			if !s.HasGroup {
				s.HasGroup = true
				s.Group = rec.TestGroup
				if rec.TestCount != nil {
					s.Declared = *rec.TestCount
				}
			}
		case rec.Test != "":
			s.Records = append(s.Records, rec)
		default:
			s.Malformed = append(s.Malformed, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return s, fmt.Errorf("read stream: %w", err)
	}
	return s, nil
}

// ParseString parses a stream held in memory
func (p *StreamParser) ParseString(output string) (*Stream, error) {
	return p.Parse(strings.NewReader(output))
}

// Validate checks that the stream is a complete run: one group record
// followed by exactly one record per declared test, with no test reported
// twice.
func (p *StreamParser) Validate(s *Stream) error {
	if !s.HasGroup {
		return ErrNoGroup
	}
	if s.Groups > 1 {
		return fmt.Errorf("stream has %d test group records", s.Groups)
	}
	if len(s.Records) < s.Declared {
		return fmt.Errorf("%w: %d of %d tests", ErrIncomplete, len(s.Records), s.Declared)
	}
	if len(s.Records) > s.Declared {
		return fmt.Errorf("stream has %d test records, group declared %d", len(s.Records), s.Declared)
	}
	seen := make(map[string]bool, len(s.Records))
	for _, rec := range s.Records {
		if seen[rec.Test] {
			return fmt.Errorf("test %s reported twice", rec.Test)
		}
		seen[rec.Test] = true
	}
	return nil
}

// ParseResult parses result.Output into result's records and decides
// whether the image succeeded.
func (p *StreamParser) ParseResult(result *domain.ImageResult) {
	s, err := p.ParseString(result.Output)
	if err != nil && result.Error == nil {
		result.Error = err
	}
	result.Group = s.Group
	result.Records = s.Records
	result.Completed = p.Validate(s) == nil

	_, failed, _ := result.Counts()
	result.Success = result.Error == nil && !result.TimedOut && result.CleanExit && result.Completed && failed == 0
}

// ParseTestCounts returns passed and failed test counts for result. An
// image that reported nothing counts as a single test.
func (p *StreamParser) ParseTestCounts(result domain.ImageResult) (passed, failed int) {
	passed, failed, _ = result.Counts()
	if !result.Completed {
		failed++
	}
	if passed > 0 || failed > 0 {
		return passed, failed
	}

	if result.Success {
		return 1, 0
	}
	return 0, 1
}

// ParseFailure returns one failure per fail record, plus one for the image
// itself when it did not complete.
func (p *StreamParser) ParseFailure(result domain.ImageResult) []domain.TestFailure {
	var failures []domain.TestFailure
	for _, rec := range result.Records {
		if rec.Result != domain.ResultFail {
			continue
		}
		file, line := SplitLocation(rec.Location)
		failures = append(failures, domain.TestFailure{
			TestName:  rec.Test,
			ImagePath: result.ImagePath,
			Group:     result.Group,
			Location:  rec.Location,
			File:      file,
			Line:      line,
			Message:   rec.Message,
		})
	}

	if msg := incompleteReason(result); msg != "" {
		failures = append(failures, domain.TestFailure{
			TestName:  imageTestName(result),
			ImagePath: result.ImagePath,
			Group:     result.Group,
			Message:   msg,
		})
	}
	return failures
}

func incompleteReason(result domain.ImageResult) string {
	_, failed, _ := result.Counts()
	switch {
	case result.TimedOut:
		return fmt.Sprintf("image timed out after %s", result.Duration.Round(time.Millisecond))
	case result.Error != nil && !result.Completed:
		return fmt.Sprintf("image run failed: %v", result.Error)
	case !result.Completed:
		return fmt.Sprintf("image exited with status %d before every test reported", result.ExitStatus)
	case !result.CleanExit && failed == 0:
		return fmt.Sprintf("image exited with status %d", result.ExitStatus)
	}
	return ""
}

func imageTestName(result domain.ImageResult) string {
	if result.Group != "" {
		return result.Group + " (image)"
	}
	return result.ImagePath
}

// SplitLocation splits "file:line" into its parts. The harness placeholder
// and locations without a line number yield line 0.
func SplitLocation(loc string) (file string, line int) {
	if loc == "" || loc == unknownLocation {
		return "", 0
	}
	i := strings.LastIndex(loc, ":")
	if i < 0 {
		return loc, 0
	}
	n, err := strconv.Atoi(loc[i+1:])
	if err != nil {
		return loc, 0
	}
	return loc[:i], n
}
