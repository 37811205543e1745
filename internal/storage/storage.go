package storage

import (
	"time"

	"ktest/internal/config"
	"ktest/internal/domain"
)

// Sink persists the results of a run
type Sink interface {
	Save(results []domain.ImageResult, failures []domain.TestFailure, duration time.Duration, workers int) error
}

// Storage persists and loads run results (e.g. for the faills viewer).
type Storage interface {
	Sink
	Load() (*domain.TestResultsOutput, error)
	// SaveOutput writes the full output (e.g. after resolving failures).
	SaveOutput(output *domain.TestResultsOutput) error
}

// JSONStorage stores results in a JSON file under the configured output path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}

// BuildOutput summarizes a run
func BuildOutput(cfg *config.Config, results []domain.ImageResult, failures []domain.TestFailure, duration time.Duration, workers int) *domain.TestResultsOutput {
	meta := domain.TestResultsMeta{
		TotalImages:     len(results),
		Duration:        duration.String(),
		DurationSeconds: duration.Seconds(),
		Workers:         workers,
		Timestamp:       time.Now().Format(time.RFC3339),
	}

	images := make([]domain.ImageSummary, 0, len(results))
	for _, r := range results {
		if r.Success {
			meta.PassedImages++
		} else {
			meta.FailedImages++
		}
		passed, failed, ignored := r.Counts()
		meta.PassedTests += passed
		meta.FailedTests += failed
		meta.IgnoredTests += ignored
		meta.TotalTests += len(r.Records)

		images = append(images, domain.ImageSummary{
			ImagePath:  r.ImagePath,
			Group:      r.Group,
			Success:    r.Success,
			Completed:  r.Completed,
			TimedOut:   r.TimedOut,
			ExitStatus: r.ExitStatus,
			Passed:     passed,
			Failed:     failed,
			Ignored:    ignored,
			LogPath:    cfg.GetLogPath(r.ImagePath),
		})
	}

	if failures == nil {
		failures = []domain.TestFailure{}
	}
	return &domain.TestResultsOutput{Meta: meta, Images: images, Details: failures}
}

// FailedImages returns the images that did not succeed in output
func FailedImages(output *domain.TestResultsOutput) []string {
	var images []string
	for _, img := range output.Images {
		if !img.Success {
			images = append(images, img.ImagePath)
		}
	}
	return images
}
