// Package workerpool runs CPU-bound jobs on a fixed set of goroutines, apart
// from the goroutines serving requests. Callers hand a job over and wait on a
// one-shot reply channel.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrPoolClosed = errors.New("worker pool closed")

type Config struct {
	Name    string
	Workers int
	Queue   int
	// Registerer receives the pool metrics. Nil disables them.
	Registerer prometheus.Registerer
}

type job struct {
	run func()
	// drop is called instead of run when the pool gives up on the job.
	drop func()
}

type Pool struct {
	name   string
	jobs   chan job
	quit   chan struct{}
	once   sync.Once
	group  errgroup.Group
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool

	queued   prometheus.Gauge
	duration prometheus.Histogram
}

func New(cfg Config, logger *zap.Logger) (*Pool, error) {
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("workerpool: workers must be positive, got %d", cfg.Workers)
	}
	if cfg.Queue < 0 {
		return nil, fmt.Errorf("workerpool: queue must not be negative, got %d", cfg.Queue)
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		name:   cfg.Name,
		jobs:   make(chan job, cfg.Queue),
		quit:   make(chan struct{}),
		logger: logger.With(zap.String("pool", cfg.Name)),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "workerpool_queued_jobs",
			Help:        "Jobs waiting for a worker.",
			ConstLabels: prometheus.Labels{"pool": cfg.Name},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "workerpool_job_duration_seconds",
			Help:        "Time spent running a job.",
			ConstLabels: prometheus.Labels{"pool": cfg.Name},
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
	if cfg.Registerer != nil {
		if err := cfg.Registerer.Register(p.queued); err != nil {
			return nil, fmt.Errorf("workerpool: register metrics: %w", err)
		}
		if err := cfg.Registerer.Register(p.duration); err != nil {
			return nil, fmt.Errorf("workerpool: register metrics: %w", err)
		}
	}

	for i := 0; i < cfg.Workers; i++ {
		p.group.Go(p.work)
	}
	p.logger.Debug("worker pool started", zap.Int("workers", cfg.Workers), zap.Int("queue", cfg.Queue))
	return p, nil
}

func (p *Pool) work() error {
	for {
		select {
		case <-p.quit:
			return nil
		case j := <-p.jobs:
			p.queued.Dec()
			p.execute(j)
		}
	}
}

func (p *Pool) execute(j job) {
	start := time.Now()
	defer func() {
		p.duration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			p.logger.Error("job panicked", zap.Any("panic", r))
			j.drop()
		}
	}()
	j.run()
}

// submit blocks until the job is queued, the context ends or the pool closes.
func (p *Pool) submit(ctx context.Context, j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- j:
		p.queued.Inc()
		return nil
	case <-p.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs, drops the queued ones and waits for running
// jobs to finish or ctx to end.
func (p *Pool) Close(ctx context.Context) error {
	p.once.Do(func() {
		close(p.quit)

		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		dropped := 0
		for {
			select {
			case j := <-p.jobs:
				p.queued.Dec()
				j.drop()
				dropped++
				continue
			default:
			}
			break
		}
		if dropped > 0 {
			p.logger.Warn("dropped queued jobs on close", zap.Int("jobs", dropped))
		}
	})

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type result[T any] struct {
	val T
	err error
}

// Do runs fn on the pool and waits for its result. If the pool abandons the
// job the reply channel is closed empty and Do returns ErrWorkerUnavailable.
// If ctx ends first Do returns ctx.Err(); a job already running finishes in
// the background and its result is discarded.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	reply := make(chan result[T], 1)
	var settle sync.Once

	j := job{
		run: func() {
			val, err := fn()
			settle.Do(func() {
				reply <- result[T]{val: val, err: err}
				close(reply)
			})
		},
		drop: func() {
			settle.Do(func() { close(reply) })
		},
	}

	if err := p.submit(ctx, j); err != nil {
		if errors.Is(err, ErrPoolClosed) {
			return zero, fmt.Errorf("%w: %w", customErrors.ErrWorkerUnavailable, err)
		}
		return zero, err
	}

	select {
	case res, ok := <-reply:
		if !ok {
			return zero, fmt.Errorf("%w: job dropped by %s pool", customErrors.ErrWorkerUnavailable, p.name)
		}
		return res.val, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
