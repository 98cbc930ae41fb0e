package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"
)

// Job is the work run on each tick.
type Job func(ctx context.Context) error

type entry struct {
	name string
	expr string
	job  Job
}

// Scheduler runs named jobs on cron expressions. Jobs added after Start
// begin immediately.
type Scheduler struct {
	logger *zap.Logger
	cron   *gronx.Gronx
	now    func() time.Time

	mu      sync.Mutex
	jobs    map[string]*entry
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// Option customizes the scheduler.
type Option func(*Scheduler)

// WithClock allows tests to control time.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler constructs an idle scheduler.
func NewScheduler(logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		logger: logger,
		cron:   gronx.New(),
		now:    time.Now,
		jobs:   map[string]*entry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Add registers job under name. Names are unique.
func (s *Scheduler) Add(name, expr string, job Job) error {
	name = strings.TrimSpace(name)
	expr = strings.TrimSpace(expr)
	if name == "" {
		return fmt.Errorf("scheduler: job name is required")
	}
	if job == nil {
		return fmt.Errorf("scheduler: job %s has no func", name)
	}
	if !s.cron.IsValid(expr) {
		return fmt.Errorf("scheduler: job %s: invalid cron expression %q", name, expr)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("scheduler: job %s already registered", name)
	}
	e := &entry{name: name, expr: expr, job: job}
	s.jobs[name] = e
	if s.running {
		s.spawn(e)
	}
	return nil
}

// Jobs returns the registered job names, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next returns the next tick of job name strictly after t.
func (s *Scheduler) Next(name string, after time.Time) (time.Time, error) {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, fmt.Errorf("scheduler: unknown job %s", name)
	}
	return gronx.NextTickAfter(e.expr, after, false)
}

// RunNow executes job name once, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("scheduler: unknown job %s", name)
	}
	return s.execute(ctx, e)
}

// Start launches one goroutine per job.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.running = true
	for _, e := range s.jobs {
		s.spawn(e)
	}
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels all jobs and waits for running ones until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: stop: %w", ctx.Err())
	}
}

// spawn must be called with s.mu held.
func (s *Scheduler) spawn(e *entry) {
	s.wg.Add(1)
	go s.loop(s.ctx, e)
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()
	for {
		now := s.now()
		next, err := gronx.NextTickAfter(e.expr, now, false)
		if err != nil {
			s.logger.Error("scheduler job stopped", zap.String("job", e.name), zap.Error(err))
			return
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := s.execute(ctx, e); err != nil {
			s.logger.Warn("scheduler job failed", zap.String("job", e.name), zap.Error(err))
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, e *entry) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("scheduler: job %s panicked: %v", e.name, recovered)
		}
	}()
	start := s.now()
	err = e.job(ctx)
	s.logger.Debug("scheduler job ran",
		zap.String("job", e.name),
		zap.Duration("took", s.now().Sub(start)),
		zap.Error(err))
	return err
}
