package execution

import (
	"context"
	"time"

	"ktest/internal/domain"
)

// Executor executes test images and returns results
type Executor interface {
	Execute(ctx context.Context, images []string) ([]domain.ImageResult, time.Duration, error)
}

var _ Executor = (*WorkerPool)(nil)

// ImageRunner boots a single image
type ImageRunner interface {
	Run(ctx context.Context, imagePath string, workerID int) domain.ImageResult
}
