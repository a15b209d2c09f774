package reconcile

import (
	"context"
	"errors"
	"sync"
)

var ErrQueueClosed = errors.New("command queue closed")

// Command is a unit of persistence work.
type Command struct {
	Name string
	Run  func(ctx context.Context) error
}

type job struct {
	ctx  context.Context
	cmd  Command
	done chan error
}

// Queue executes commands one at a time, in submission order, on a single worker.
type Queue struct {
	jobs chan job

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 16
	}
	q := &Queue{jobs: make(chan job, size)}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for j := range q.jobs {
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			j.done <- j.cmd.Run(j.ctx)
		}
	}()
	return q
}

// Enqueue submits cmd and returns a channel that receives its result.
func (q *Queue) Enqueue(ctx context.Context, cmd Command) <-chan error {
	done := make(chan error, 1)
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		done <- ErrQueueClosed
		return done
	}
	select {
	case q.jobs <- job{ctx: ctx, cmd: cmd, done: done}:
	case <-ctx.Done():
		done <- ctx.Err()
	}
	return done
}

// Do enqueues cmd and waits for it to finish.
func (q *Queue) Do(ctx context.Context, cmd Command) error {
	return <-q.Enqueue(ctx, cmd)
}

// Close stops accepting commands and waits for queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
}
