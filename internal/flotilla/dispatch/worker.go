package dispatch

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ProcessFunc handles one claimed task. The context is cancelled when the
// task is revoked (preemption forced-stop) or the pool shuts down.
type ProcessFunc func(ctx context.Context, task *Task) error

// WorkerPool runs a fixed number of workers that poll the dispatcher for
// ready tasks. A worker is occupied for a task's entire run, so pool size
// bounds how many deployments can execute concurrently.
type WorkerPool struct {
	dispatcher *RedisTaskDispatcher
	process    ProcessFunc
	workers    int
	poll       time.Duration
}

func NewWorkerPool(dispatcher *RedisTaskDispatcher, process ProcessFunc, workers int, poll time.Duration) *WorkerPool {
	return &WorkerPool{
		dispatcher: dispatcher,
		process:    process,
		workers:    workers,
		poll:       poll,
	}
}

// Run blocks until ctx is cancelled and all workers have drained.
func (p *WorkerPool) Run(ctx context.Context) error {
	wg := sync.WaitGroup{}
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		worker := i
		go func() {
			defer wg.Done()
			p.runWorker(ctx, worker)
		}()
	}
	wg.Wait()
	return nil
}

func (p *WorkerPool) runWorker(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := p.dispatcher.Claim()
		if err != nil {
			log.WithError(err).Error("failed to claim task")
		}
		if task == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.poll):
			}
			continue
		}

		p.runTask(ctx, worker, task)
	}
}

func (p *WorkerPool) runTask(ctx context.Context, worker int, task *Task) {
	taskCtx, done := p.dispatcher.StartRun(ctx, task.Id)
	defer done()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("worker %d: task %s panicked: %v", worker, task.Id, r)
		}
	}()

	if err := p.process(taskCtx, task); err != nil {
		log.WithError(err).Errorf("worker %d: task %s failed", worker, task.Id)
	}
}
