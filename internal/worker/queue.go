package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is a unit of deferred work executed off the request path.
type Task func(context.Context)

// Queue runs tasks on a fixed set of goroutines. Delivery is at most
// once: when the buffer is full the task is dropped and logged, never
// retried.
type Queue struct {
	tasks   chan Task
	logger  *zap.Logger
	wg      sync.WaitGroup
	closing chan struct{}
	once    sync.Once
}

// NewQueue creates a queue with the given buffer size and worker count.
func NewQueue(buffer, workers int, logger *zap.Logger) *Queue {
	if buffer < 1 {
		buffer = 64
	}
	if workers < 1 {
		workers = 1
	}
	q := &Queue{
		tasks:   make(chan Task, buffer),
		logger:  logger,
		closing: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case task := <-q.tasks:
			task(context.Background())
		case <-q.closing:
			// drain whatever was accepted before shutdown
			for {
				select {
				case task := <-q.tasks:
					task(context.Background())
				default:
					return
				}
			}
		}
	}
}

// Enqueue submits a task. Returns false if the queue is full or
// shutting down; the task is discarded in that case.
func (q *Queue) Enqueue(task Task) bool {
	select {
	case <-q.closing:
		return false
	default:
	}
	select {
	case q.tasks <- task:
		return true
	default:
		if q.logger != nil {
			q.logger.Warn("task queue full, dropping task")
		}
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (q *Queue) Shutdown() {
	q.once.Do(func() {
		close(q.closing)
	})
	q.wg.Wait()
}
