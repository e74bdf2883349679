package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is one unit of background work
type Task func(ctx context.Context)

// Pool runs dispatched tasks on a fixed set of workers. Dispatch never blocks
// the request path: when the queue is full the task is handed to a fresh
// goroutine instead of being dropped.
type Pool struct {
	tasks    chan Task
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	inflight sync.WaitGroup
}

// NewPool creates a pool with workerCount workers and a bounded queue
func NewPool(workerCount, queueSize int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	p := &Pool{
		tasks:  make(chan Task, queueSize),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Dispatch schedules a task for background execution and returns immediately
func (p *Pool) Dispatch(task Task) {
	p.inflight.Add(1)
	select {
	case p.tasks <- task:
	default:
		log.Warn().Msg("Task queue full, running task on extra goroutine")
		go p.run(task)
	}
}

// Stop waits for queued and running tasks to finish, then stops the workers
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.inflight.Wait()
		close(p.stopCh)
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			p.run(task)
		case <-p.stopCh:
			// Drain anything still queued before exiting
			for {
				select {
				case task := <-p.tasks:
					p.run(task)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(task Task) {
	defer p.inflight.Done()
	task(context.Background())
}
