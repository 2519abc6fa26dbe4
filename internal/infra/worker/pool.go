// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// Task is one unit of work scheduled on the pool.
type Task func(ctx context.Context) error

// ErrQueueFull is returned by Submit when every worker is busy and the
// buffer has no room. Callers drop the task and pick the work up again on
// the next poll tick, so no job is lost.
var ErrQueueFull = errors.New("worker queue full")

// Pool runs tasks on a fixed set of goroutines with a bounded queue.
type Pool struct {
	tasks chan Task
	done  chan struct{}
	size  int
	wg    sync.WaitGroup
	log   *zerolog.Logger
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		tasks: make(chan Task, workers*4),
		done:  make(chan struct{}),
		size:  workers,
		log:   logger,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case task := <-p.tasks:
			if task == nil {
				continue
			}
			if err := task(ctx); err != nil {
				p.log.Error().Err(err).Int("worker", id).Msg("task failed")
			}
		}
	}
}

// Submit enqueues a task without blocking.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) Stop() {
	close(p.done)
	p.wg.Wait()
}
