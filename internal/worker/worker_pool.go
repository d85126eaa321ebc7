package worker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Task func()

// WorkerPool runs submitted tasks on a fixed number of goroutines.
type WorkerPool struct {
	tasks      chan Task
	wg         sync.WaitGroup
	maxWorkers int
	busy       int
	mu         sync.RWMutex
	stopOnce   sync.Once
	logger     zerolog.Logger
}

func NewWorkerPool(maxWorkers int, logger zerolog.Logger) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		tasks:      make(chan Task, maxWorkers*10),
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

func (wp *WorkerPool) Start() {
	for i := 0; i < wp.maxWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	wp.logger.Info().Int("max_workers", wp.maxWorkers).Msg("Worker pool started")
}

// Stop drains queued tasks and waits for the workers to exit. Submit must not be called afterwards.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.tasks)
		wp.wg.Wait()
		wp.logger.Info().Msg("Worker pool stopped")
	})
}

// Submit enqueues task, waiting up to timeout for room. It reports false if the task was dropped.
func (wp *WorkerPool) Submit(task Task, timeout time.Duration) bool {
	select {
	case wp.tasks <- task:
		return true
	default:
	}

	wp.logger.Warn().Msg("Worker pool task queue is full")

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case wp.tasks <- task:
		return true
	case <-timer.C:
		wp.logger.Error().Msg("Failed to submit task to worker pool (timeout)")
		return false
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for task := range wp.tasks {
		wp.run(id, task)
	}

	wp.logger.Debug().Int("worker_id", id).Msg("Worker stopped")
}

func (wp *WorkerPool) run(id int, task Task) {
	wp.mu.Lock()
	wp.busy++
	wp.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error().
				Int("worker_id", id).
				Interface("panic", r).
				Msg("Worker recovered from panic")
		}

		wp.mu.Lock()
		wp.busy--
		wp.mu.Unlock()
	}()

	task()
}

// PoolStats is a point-in-time view of the pool's load.
type PoolStats struct {
	Busy     int
	Workers  int
	Queued   int
	Capacity int
}

func (wp *WorkerPool) Stats() PoolStats {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	return PoolStats{
		Busy:     wp.busy,
		Workers:  wp.maxWorkers,
		Queued:   len(wp.tasks),
		Capacity: cap(wp.tasks),
	}
}
