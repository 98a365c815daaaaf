package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"socialhub/infrastructure/logger"
)

var ErrShuttingDown = errors.New("worker: shutting down")

// Task is the handle of one background job.
type Task struct {
	Name string

	done chan struct{}
	err  error
}

// Done is closed when the job has returned or panicked.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the job finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err is only meaningful after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

type IRunner interface {
	Go(name string, fn func(ctx context.Context) error) *Task
	Wait()
	Shutdown(ctx context.Context) error
}

// Runner starts detached single-shot jobs. Jobs get a context that outlives
// the request that scheduled them.
type Runner struct {
	ctx context.Context
	wg  conc.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewRunner(ctx context.Context) *Runner {
	return &Runner{ctx: context.WithoutCancel(ctx)}
}

func (r *Runner) Go(name string, fn func(ctx context.Context) error) *Task {
	task := &Task{Name: name, done: make(chan struct{})}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		task.err = ErrShuttingDown
		close(task.done)
		return task
	}

	r.wg.Go(func() {
		defer close(task.done)
		var pc panics.Catcher
		pc.Try(func() { task.err = fn(r.ctx) })
		if rec := pc.Recovered(); rec != nil {
			task.err = fmt.Errorf("task %s panicked: %w", name, rec.AsError())
		}
		if task.err != nil {
			logger.GetLogger().WithField("task", name).WithField("error", task.err).Error("Background task failed")
		}
	})
	return task
}

// Wait blocks until every started job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown stops accepting jobs and waits for running ones until ctx ends.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
