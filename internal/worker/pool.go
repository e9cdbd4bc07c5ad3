package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolClosed is returned by Do after Close.
var ErrPoolClosed = errors.New("worker pool closed")

type Task func(ctx context.Context) error

type job struct {
	ctx  context.Context
	task Task
	done chan error
}

// Pool runs tasks on a fixed number of goroutines. Do blocks until its task
// has finished, so callers see the result synchronously while the work itself
// is bounded by the pool size.
type Pool struct {
	workers int
	tasks   chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	logger  *zap.Logger
}

func NewPool(workers, buffer int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan job, buffer),
		logger:  logger,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.tasks {
		if err := j.ctx.Err(); err != nil {
			j.done <- err
			continue
		}
		j.done <- p.exec(j)
	}
}

func (p *Pool) exec(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker task panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("worker task panic: %v", r)
		}
	}()
	return j.task(j.ctx)
}

// Do queues task and waits for it. If ctx ends while the task is still
// queued, Do returns ctx.Err() and the task is skipped; a running task is
// expected to watch ctx itself.
func (p *Pool) Do(ctx context.Context, task Task) error {
	if task == nil {
		return nil
	}
	j := job{ctx: ctx, task: task, done: make(chan error, 1)}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	select {
	case p.tasks <- j:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	return <-j.done
}

// Close stops accepting tasks and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}
