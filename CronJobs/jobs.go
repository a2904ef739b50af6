package CronJobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled unit of work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on cron expressions with a seconds field, e.g.
// "0 0 1 * * *" for 01:00:00 every day.
type Scheduler struct {
	cronScheduler *cron.Cron
	log           *zap.Logger
	timeout       time.Duration
	entries       map[string]cron.EntryID
}

// NewScheduler evaluates schedules in loc. Each run gets timeout to finish.
func NewScheduler(loc *time.Location, timeout time.Duration, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{log.Sugar()}
	return &Scheduler{
		cronScheduler: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		log:     log,
		timeout: timeout,
		entries: make(map[string]cron.EntryID),
	}
}

// Add schedules job. An empty spec leaves the job disabled.
func (s *Scheduler) Add(spec string, job Job) error {
	if spec == "" {
		s.log.Info("job disabled", zap.String("job", job.Name()))
		return nil
	}
	id, err := s.cronScheduler.AddFunc(spec, func() { s.RunNow(job) })
	if err != nil {
		return fmt.Errorf("error scheduling %s: %w", job.Name(), err)
	}
	s.entries[job.Name()] = id
	s.log.Info("job scheduled", zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

// RunNow executes job once in the calling goroutine.
func (s *Scheduler) RunNow(job Job) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error("job failed", zap.String("job", job.Name()), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	s.log.Info("job finished", zap.String("job", job.Name()), zap.Duration("took", time.Since(start)))
}

// Next reports when a scheduled job fires next.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cronScheduler.Entry(id).Next, true
}

func (s *Scheduler) Start() {
	s.cronScheduler.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cronScheduler.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stopped with jobs still running")
	}
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
