package execution

// Scheduler distributes images across workers
type Scheduler interface {
	Schedule(images []string, workerCount int) [][]string
}

// RoundRobinScheduler distributes images evenly across workers
type RoundRobinScheduler struct{}

// NewRoundRobinScheduler creates a new RoundRobinScheduler
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

// Schedule distributes images evenly across workers using round-robin, keeping each worker's share in input order
func (s *RoundRobinScheduler) Schedule(images []string, workerCount int) [][]string {
	if workerCount <= 0 {
		workerCount = 1
	}

	distribution := make([][]string, workerCount)
	for i := range distribution {
		distribution[i] = make([]string, 0)
	}

	for i, image := range images {
		workerIndex := i % workerCount
		distribution[workerIndex] = append(distribution[workerIndex], image)
	}

	return distribution
}
