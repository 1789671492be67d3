package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/markbear/markbear/internal/core/domain"
	"github.com/markbear/markbear/internal/core/ports/driving"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 4

// ErrDispatcherStopped is returned by Submit after Stop (or before Start).
var ErrDispatcherStopped = errors.New("dispatcher not running")

// Ensure Dispatch implements the driving port.
var _ driving.Dispatcher = (*Dispatch)(nil)

// Dispatch runs conversion jobs on a bounded worker pool. A conversion in
// flight is never interrupted; cancelling the submit context only stops a
// job that is still queued.
type Dispatch struct {
	service driving.ConversionService
	workers int

	mu      sync.Mutex
	running bool
	jobs    chan queuedJob
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type queuedJob struct {
	id      string
	job     driving.Job
	ctx     context.Context
	results chan<- driving.Result
}

// NewDispatch creates a dispatcher over the conversion service. A workers
// value below one falls back to DefaultWorkers.
func NewDispatch(service driving.ConversionService, workers int) *Dispatch {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Dispatch{service: service, workers: workers}
}

// Start launches the worker pool. Starting a running dispatcher is a no-op.
func (d *Dispatch) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.jobs = make(chan queuedJob, d.workers*2)
	d.stopCh = make(chan struct{})

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Stop closes the queue, drains the jobs already accepted and waits for
// in-flight workers to finish.
func (d *Dispatch) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}

// Submit enqueues a job. The returned channel is buffered and delivers
// exactly one Result, so an abandoned caller never blocks a worker.
func (d *Dispatch) Submit(ctx context.Context, job driving.Job) (string, <-chan driving.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return "", nil, ErrDispatcherStopped
	}

	id := uuid.NewString()
	results := make(chan driving.Result, 1)
	d.jobs <- queuedJob{id: id, job: job, ctx: ctx, results: results}
	return id, results, nil
}

func (d *Dispatch) worker() {
	defer d.wg.Done()
	for q := range d.jobs {
		// Queued jobs whose submitter gave up are skipped; a job that
		// has already started always runs to completion.
		if err := q.ctx.Err(); err != nil {
			q.results <- driving.Result{JobID: q.id, Err: err}
			continue
		}
		q.results <- d.run(q)
	}
}

func (d *Dispatch) run(q queuedJob) driving.Result {
	res := driving.Result{JobID: q.id}
	switch q.job.Direction {
	case domain.DirectionImport:
		res.Markdown, res.Warnings, res.Err = d.service.Import(q.ctx, q.job.Format, q.job.SourcePath)
	default:
		res.Warnings, res.Err = d.service.Export(q.ctx, q.job.Format, q.job.Markdown, q.job.DestPath)
	}
	return res
}
