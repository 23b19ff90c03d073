// internal/app/system/tasks/scheduler.go
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named unit of maintenance work run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each registered job on its own ticker until stopped.
// A failing run is logged and the job keeps its schedule.
type Scheduler struct {
	log     *zap.Logger
	timeout time.Duration
	jobs    []Job

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewScheduler creates a scheduler whose job runs are each bounded by
// timeout.
func NewScheduler(logger *zap.Logger, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{log: logger, timeout: timeout}
}

// Add registers j. Jobs with a non-positive interval are ignored.
// Call before Start.
func (s *Scheduler) Add(j Job) {
	if j.Interval <= 0 || j.Run == nil {
		s.log.Debug("job not scheduled", zap.String("job", j.Name))
		return
	}
	s.jobs = append(s.jobs, j)
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name
	}
	return names
}

// Start launches one goroutine per job. The first run happens after one
// interval has elapsed.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	if len(s.jobs) > 0 {
		s.log.Info("scheduled jobs started", zap.Strings("jobs", s.Jobs()))
	}
}

// Stop cancels in-flight runs and waits for every job goroutine to exit.
// Safe to call more than once, and before Start.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
	})
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	defer s.wg.Done()

	t := time.NewTicker(j.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduled job panicked", zap.String("job", j.Name), zap.Any("panic", r))
		}
	}()
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := j.Run(runCtx); err != nil && ctx.Err() == nil {
		s.log.Warn("scheduled job failed", zap.String("job", j.Name), zap.Error(err))
	}
}
