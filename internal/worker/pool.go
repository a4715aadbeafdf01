// Package worker runs independent search goals concurrently. Rounds
// inside one run are strictly sequential, but separate runs share no
// mutable state, so a batch of goals can fan out across a pool.
package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution.
type Result interface {
	GetError() error
}

// Pool manages a fixed set of workers executing jobs concurrently.
type Pool struct {
	workers    int
	jobQueue   chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a worker pool with the specified number of workers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, workers*2),
		results:    make(chan Result, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job for execution. Blocks if the queue is full.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// Wait closes the queue, waits for all jobs to complete, and returns
// the results in completion order.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)

	go func() {
		p.wg.Wait()
		p.closeResults()
	}()

	var results []Result
	for result := range p.results {
		results = append(results, result)
	}

	return results
}

// Shutdown cancels outstanding work immediately.
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
