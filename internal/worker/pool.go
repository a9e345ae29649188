// Package worker provides a bounded background job pool. Jobs are named,
// submissions never block, and completions are observable through counters,
// so a stuck or failing background sync is visible instead of silent.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Job is one unit of background work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Stats is a snapshot of pool activity since start.
type Stats struct {
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

// Pool runs jobs on a fixed number of workers over a bounded queue.
type Pool struct {
	jobs   chan Job
	logger *slog.Logger
	wg     sync.WaitGroup

	// mu guards stopped and the close of jobs: Submit holds the read side
	// across its send so Stop cannot close the channel mid-submission.
	mu      sync.RWMutex
	stopped bool

	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64

	jobsTotal   *prometheus.CounterVec
	queueDepth  prometheus.GaugeFunc
	metricsOnce sync.Once
}

// New creates a pool with the given worker count and queue capacity.
// Non-positive values get sane minimums.
func New(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		jobs:   make(chan Job, queueSize),
		logger: logger,
	}
	p.jobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fintrack",
		Subsystem: "worker",
		Name:      "jobs_total",
		Help:      "Background jobs by outcome.",
	}, []string{"outcome"})
	p.queueDepth = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "fintrack",
		Subsystem: "worker",
		Name:      "queue_depth",
		Help:      "Jobs waiting in the pool queue.",
	}, func() float64 { return float64(len(p.jobs)) })

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Register adds the pool's metrics to a registry. Safe to skip in tests.
func (p *Pool) Register(reg prometheus.Registerer) {
	p.metricsOnce.Do(func() {
		reg.MustRegister(p.jobsTotal, p.queueDepth)
	})
}

// Submit queues a job without blocking. When the queue is full or the pool
// is stopped the job is dropped and false returned.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped || job.Run == nil {
		p.dropped.Add(1)
		p.jobsTotal.WithLabelValues("dropped").Inc()
		return false
	}
	select {
	case p.jobs <- job:
		p.submitted.Add(1)
		return true
	default:
		p.dropped.Add(1)
		p.jobsTotal.WithLabelValues("dropped").Inc()
		p.logger.Warn("worker queue full, job dropped", slog.String("job", job.Name))
		return false
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(job)
	}
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.jobsTotal.WithLabelValues("failed").Inc()
			p.logger.Error("worker job panicked",
				slog.String("job", job.Name), slog.Any("panic", r))
		}
	}()
	if err := job.Run(context.Background()); err != nil {
		p.failed.Add(1)
		p.jobsTotal.WithLabelValues("failed").Inc()
		p.logger.Warn("worker job failed",
			slog.String("job", job.Name), slog.Any("error", err))
		return
	}
	p.completed.Add(1)
	p.jobsTotal.WithLabelValues("completed").Inc()
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Dropped:   p.dropped.Load(),
	}
}
