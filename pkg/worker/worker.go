package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/nimasrn/hacienda/pkg/logger"
)

var ErrTerminated = errors.New("workers terminated")

type Handler[T any] func(ctx context.Context, workerIndex int, job T)

type Manager[T any] struct {
	jobs           chan T
	numberOfWorker int
	do             Handler[T]
	stop           chan struct{}
	once           sync.Once
	waiter         sync.WaitGroup
}

// NewManager builds a pool of numberOfWorkers goroutines reading a buffered
// job channel. With one worker jobs run strictly one after another.
func NewManager[T any](bufferSize, numberOfWorkers int, do Handler[T]) *Manager[T] {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	return &Manager[T]{
		jobs:           make(chan T, bufferSize),
		numberOfWorker: numberOfWorkers,
		do:             do,
		stop:           make(chan struct{}),
	}
}

func (w *Manager[T]) Pending() int {
	return len(w.jobs)
}

// Enqueue blocks until the job fits in the buffer.
func (w *Manager[T]) Enqueue(job T) {
	select {
	case w.jobs <- job:
	case <-w.stop:
	}
}

// TryEnqueue drops the job when the buffer is full and reports whether it was queued.
func (w *Manager[T]) TryEnqueue(job T) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		return false
	}
}

// Start runs the workers and blocks until ctx is done or Exit is called.
func (w *Manager[T]) Start(ctx context.Context) error {
	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job := <-w.jobs:
					w.do(ctx, index, job)
				case <-w.stop:
					return
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
	w.waiter.Wait()
	return ErrTerminated
}

// Exit stops every worker after its current job.
func (w *Manager[T]) Exit() {
	w.once.Do(func() {
		logger.Info("worker manager is going to be shutdown")
		close(w.stop)
	})
}
