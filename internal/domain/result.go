package domain

import "time"

// ImageResult represents the result of booting one test image
type ImageResult struct {
	ImagePath  string        // Path to the image that was booted
	Group      string        // Test group announced by the image
	Success    bool          // Whether the image completed and every test passed
	Completed  bool          // Whether the image reported a record for every test
	TimedOut   bool          // Whether the run was killed at the timeout
	ExitStatus int           // Emulator (or host process) exit status
	CleanExit  bool          // Whether the exit status reports a completed harness run
	Output     string        // Raw captured stream
	Records    []Record      // Parsed test records, group record excluded
	Error      error         // Error if the run itself failed
	Duration   time.Duration // Time taken to boot and run the image
}

// Counts returns the number of passed, failed and ignored test records
func (r ImageResult) Counts() (passed, failed, ignored int) {
	for _, rec := range r.Records {
		switch rec.Result {
		case ResultPass:
			passed++
		case ResultFail:
			failed++
		case ResultIgnore:
			ignored++
		}
	}
	return passed, failed, ignored
}

// TestResultsMeta contains metadata about a test run
type TestResultsMeta struct {
	TotalImages     int     `json:"total_images"`
	FailedImages    int     `json:"failed_images"`
	PassedImages    int     `json:"passed_images"`
	TotalTests      int     `json:"total_tests"`
	PassedTests     int     `json:"passed_tests"`
	FailedTests     int     `json:"failed_tests"`
	IgnoredTests    int     `json:"ignored_tests"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Workers         int     `json:"workers"`
	Timestamp       string  `json:"timestamp"`
}

// TestResultsOutput is the complete output structure for test results
type TestResultsOutput struct {
	Meta    TestResultsMeta `json:"meta"`
	Images  []ImageSummary  `json:"images"`
	Details []TestFailure   `json:"details"`
}

// ImageSummary is the stored outcome of one image
type ImageSummary struct {
	ImagePath  string `json:"image_path"`
	Group      string `json:"group"`
	Success    bool   `json:"success"`
	Completed  bool   `json:"completed"`
	TimedOut   bool   `json:"timed_out,omitempty"`
	ExitStatus int    `json:"exit_status"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Ignored    int    `json:"ignored"`
	LogPath    string `json:"log_path,omitempty"`
}
