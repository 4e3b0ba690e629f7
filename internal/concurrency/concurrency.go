// Package concurrency provides the worker-pool engine behind the
// multi-interpreter pool: a fixed set of goroutines pulling Jobs off a
// channel and pushing JobResults back, plus an errgroup-based fan-out
// helper for running a batch of jobs to completion at once. Adapted from
// a ConcurrencyModule/WorkerPool/Job/JobResult shape whose job execution
// was once a hardcoded switch over job types; here it is Execute, a
// caller-supplied func(Job) (any, error), so this package has no notion
// of what a job actually does. internal/api's RunScripts passes RunBatch
// a function that evaluates Job.Data as Rebol source against a fresh
// Interpreter started for that job.
package concurrency

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Module owns a set of named worker pools and aggregate metrics, the way
// a ConcurrencyModule does before narrowing the scope to just the
// worker-pool concern.
type Module struct {
	Pools   map[string]*Pool
	Metrics *Metrics
	mu      sync.RWMutex
}

// Pool manages a fixed set of worker goroutines draining a shared Jobs
// channel.
type Pool struct {
	ID        string
	Size      int
	Jobs      chan Job
	Results   chan JobResult
	Workers   []*Worker
	Running   bool
	Execute   func(Job) (any, error)
	Ctx       context.Context
	Cancel    context.CancelFunc
	WaitGroup sync.WaitGroup
	Created   time.Time
	TasksDone int64
}

// Worker represents a single worker goroutine.
type Worker struct {
	ID       int
	Pool     *Pool
	JobsChan chan Job
	Quit     chan bool
}

// Job is a unit of work submitted to a Pool.
type Job struct {
	ID       string
	Type     string
	Data     any
	Timeout  time.Duration
	Priority int
	Created  time.Time
}

// JobResult is the outcome of running a Job.
type JobResult struct {
	JobID     string
	Success   bool
	Result    any
	Error     error
	Duration  time.Duration
	WorkerID  int
	Completed time.Time
}

// Metrics tracks pool-wide counters.
type Metrics struct {
	PoolsActive     int64
	WorkersTotal    int64
	TasksProcessing int64
	TasksCompleted  int64
	TasksFailed     int64
}

// NewModule creates an empty concurrency module.
func NewModule() *Module {
	return &Module{Pools: make(map[string]*Pool), Metrics: &Metrics{}}
}

// CreatePool registers a new pool of size workers (defaulting to
// runtime.NumCPU() when size<=0) under id, wired to execute each Job
// with fn.
func (m *Module) CreatePool(id string, size, bufferSize int, fn func(Job) (any, error)) (*Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if size <= 0 {
		size = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	pool := &Pool{
		ID:      id,
		Size:    size,
		Jobs:    make(chan Job, bufferSize),
		Results: make(chan JobResult, bufferSize),
		Workers: make([]*Worker, size),
		Execute: fn,
		Ctx:     ctx,
		Cancel:  cancel,
		Created: time.Now(),
	}
	for i := 0; i < size; i++ {
		pool.Workers[i] = &Worker{ID: i, Pool: pool, JobsChan: pool.Jobs, Quit: make(chan bool)}
	}
	m.Pools[id] = pool
	atomic.AddInt64(&m.Metrics.PoolsActive, 1)
	atomic.AddInt64(&m.Metrics.WorkersTotal, int64(size))
	return pool, nil
}

// StartPool launches all of a pool's workers.
func (m *Module) StartPool(poolID string) error {
	m.mu.RLock()
	pool, exists := m.Pools[poolID]
	m.mu.RUnlock()
	if !exists {
		return fmt.Errorf("concurrency: pool not found: %s", poolID)
	}
	if pool.Running {
		return fmt.Errorf("concurrency: pool already running: %s", poolID)
	}
	pool.Running = true
	for _, worker := range pool.Workers {
		pool.WaitGroup.Add(1)
		go m.runWorker(worker)
	}
	return nil
}

func (m *Module) runWorker(worker *Worker) {
	defer worker.Pool.WaitGroup.Done()
	for {
		select {
		case job := <-worker.JobsChan:
			start := time.Now()
			atomic.AddInt64(&m.Metrics.TasksProcessing, 1)
			result := m.executeJob(job, worker)
			result.Duration = time.Since(start)
			result.WorkerID = worker.ID

			select {
			case worker.Pool.Results <- result:
				atomic.AddInt64(&worker.Pool.TasksDone, 1)
				atomic.AddInt64(&m.Metrics.TasksProcessing, -1)
				if result.Success {
					atomic.AddInt64(&m.Metrics.TasksCompleted, 1)
				} else {
					atomic.AddInt64(&m.Metrics.TasksFailed, 1)
				}
			case <-worker.Pool.Ctx.Done():
				return
			}

		case <-worker.Quit:
			return
		case <-worker.Pool.Ctx.Done():
			return
		}
	}
}

func (m *Module) executeJob(job Job, worker *Worker) JobResult {
	result := JobResult{JobID: job.ID, Completed: time.Now()}

	ctx := worker.Pool.Ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result.Error = fmt.Errorf("concurrency: job panicked: %v", r)
			}
			close(done)
		}()
		if worker.Pool.Execute == nil {
			result.Error = fmt.Errorf("concurrency: pool %s has no Execute function", worker.Pool.ID)
			return
		}
		result.Result, result.Error = worker.Pool.Execute(job)
		if result.Error == nil {
			result.Success = true
		}
	}()

	select {
	case <-done:
		return result
	case <-ctx.Done():
		result.Error = fmt.Errorf("concurrency: job timed out")
		return result
	}
}

// SubmitJob enqueues job on poolID's Jobs channel.
func (m *Module) SubmitJob(poolID string, job Job) error {
	m.mu.RLock()
	pool, exists := m.Pools[poolID]
	m.mu.RUnlock()
	if !exists {
		return fmt.Errorf("concurrency: pool not found: %s", poolID)
	}
	if job.Created.IsZero() {
		job.Created = time.Now()
	}
	select {
	case pool.Jobs <- job:
		return nil
	case <-pool.Ctx.Done():
		return fmt.Errorf("concurrency: pool %s is shutting down", poolID)
	}
}

// RunBatch fans jobs out across count concurrent invocations of fn using
// an errgroup, returning one JobResult per job in input order — this is
// the "multiple independent interpreters per process" fan-out path: each
// job typically carries its own freshly started interpreter, so unlike
// SubmitJob's shared pool this never blocks waiting for a pool worker to
// free up.
func RunBatch(ctx context.Context, jobs []Job, concurrency int, fn func(Job) (any, error)) ([]JobResult, error) {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	results := make([]JobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			start := time.Now()
			value, err := fn(job)
			results[i] = JobResult{
				JobID:     job.ID,
				Success:   err == nil,
				Result:    value,
				Error:     err,
				Duration:  time.Since(start),
				Completed: time.Now(),
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// StopPool cancels a pool and waits (up to timeout) for its workers to
// drain.
func (m *Module) StopPool(poolID string, timeout time.Duration) error {
	m.mu.RLock()
	pool, exists := m.Pools[poolID]
	m.mu.RUnlock()
	if !exists {
		return fmt.Errorf("concurrency: pool not found: %s", poolID)
	}

	pool.Running = false
	pool.Cancel()

	done := make(chan struct{})
	go func() {
		pool.WaitGroup.Wait()
		close(done)
	}()

	select {
	case <-done:
		atomic.AddInt64(&m.Metrics.PoolsActive, -1)
		atomic.AddInt64(&m.Metrics.WorkersTotal, -int64(pool.Size))
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("concurrency: pool %s shutdown timeout", poolID)
	}
}

// Cleanup stops every pool and clears the module's registry.
func (m *Module) Cleanup() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.Pools))
	for id := range m.Pools {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.StopPool(id, 5*time.Second)
	}

	m.mu.Lock()
	m.Pools = make(map[string]*Pool)
	m.mu.Unlock()
}
