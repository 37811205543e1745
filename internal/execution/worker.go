package execution

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ktest/internal/config"
	"ktest/internal/domain"
	"ktest/internal/parser"
	"ktest/internal/ui"
)

// WorkerPool manages a pool of workers, each driving one emulator at a time
type WorkerPool struct {
	config    *config.Config
	runner    ImageRunner
	scheduler Scheduler
	progress  *ui.ProgressBar
	parser    *parser.StreamParser
	log       *zap.Logger
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(cfg *config.Config, runner ImageRunner, scheduler Scheduler, streamParser *parser.StreamParser, log *zap.Logger) *WorkerPool {
	return &WorkerPool{
		config:    cfg,
		runner:    runner,
		scheduler: scheduler,
		parser:    streamParser,
		log:       log,
	}
}

// SetProgress sets the progress bar for the worker pool
func (wp *WorkerPool) SetProgress(progress *ui.ProgressBar) {
	wp.progress = progress
}

// Execute runs every image (no fail-fast).
func (wp *WorkerPool) Execute(ctx context.Context, images []string) ([]domain.ImageResult, time.Duration, error) {
	return wp.ExecuteWithOptions(ctx, images, false)
}

// ExecuteWithOptions runs images with optional fail-fast (stop on first failed image).
func (wp *WorkerPool) ExecuteWithOptions(ctx context.Context, images []string, failFast bool) ([]domain.ImageResult, time.Duration, error) {
	if len(images) == 0 {
		return nil, 0, nil
	}
	if !failFast {
		return wp.executeAll(ctx, images)
	}
	return wp.executeFailFast(ctx, images)
}

func (wp *WorkerPool) workerCount(images int) int {
	n := wp.config.Processors
	if n <= 0 {
		n = 1
	}
	if n > images {
		n = images
	}
	return n
}

// tally tracks progress across workers
type tally struct {
	mu        sync.Mutex
	completed int
	passed    int
	failed    int
}

// record parses result and updates the progress bar. It returns the
// parsed result.
func (wp *WorkerPool) record(t *tally, result domain.ImageResult) domain.ImageResult {
	wp.parser.ParseResult(&result)
	p, f := wp.parser.ParseTestCounts(result)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	t.passed += p
	t.failed += f
	if wp.progress != nil {
		wp.progress.Update(t.completed, t.passed, t.failed)
	}
	return result
}

// executeAll assigns images to workers up front and runs them all.
func (wp *WorkerPool) executeAll(ctx context.Context, images []string) ([]domain.ImageResult, time.Duration, error) {
	workerCount := wp.workerCount(len(images))
	distribution := wp.scheduler.Schedule(images, workerCount)
	results := make(chan domain.ImageResult, len(images))

	var t tally
	startTime := time.Now()

	var wg sync.WaitGroup
	for i, assigned := range distribution {
		wg.Add(1)
		go func(workerID int, assigned []string) {
			defer wg.Done()
			for _, image := range assigned {
				if ctx.Err() != nil {
					return
				}
				results <- wp.record(&t, wp.runner.Run(ctx, image, workerID))
			}
		}(i+1, assigned)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var allResults []domain.ImageResult
	for result := range results {
		allResults = append(allResults, result)
	}
	if wp.progress != nil {
		wp.progress.Finish()
	}
	return allResults, time.Since(startTime), ctx.Err()
}

// executeFailFast runs images from a shared queue and stops after the first
// failed image. Images still running are killed and their results dropped.
func (wp *WorkerPool) executeFailFast(parent context.Context, images []string) ([]domain.ImageResult, time.Duration, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	queue := make(chan string, 1)
	results := make(chan domain.ImageResult, len(images))

	go func() {
		defer close(queue)
		for _, image := range images {
			select {
			case <-ctx.Done():
				return
			case queue <- image:
			}
		}
	}()

	var mu sync.Mutex
	var seenFailure bool
	var t tally
	startTime := time.Now()

	var wg sync.WaitGroup
	for i := 1; i <= wp.workerCount(len(images)); i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for image := range queue {
				result := wp.runner.Run(ctx, image, workerID)
				mu.Lock()
				done := seenFailure
				mu.Unlock()
				if done {
					continue
				}
				result = wp.record(&t, result)
				results <- result
				if !result.Success {
					mu.Lock()
					seenFailure = true
					mu.Unlock()
					wp.log.Debug("Stopping after failed image", zap.String("image", image))
					cancel()
				}
			}
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var allResults []domain.ImageResult
	for result := range results {
		allResults = append(allResults, result)
	}
	if wp.progress != nil {
		wp.progress.Finish()
	}
	return allResults, time.Since(startTime), parent.Err()
}
