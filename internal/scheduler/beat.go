package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jmehdipour/crmbeat/internal/config"
	"github.com/jmehdipour/crmbeat/internal/jobs"
)

// Beat runs the job registry on cron schedules. Every tick goes through
// jobs.Run, so a failing job is logged and counted but never stops the
// schedule.
type Beat struct {
	cron       *cron.Cron
	lg         *zap.Logger
	jobTimeout time.Duration
}

func New(lg *zap.Logger, jobTimeout time.Duration) *Beat {
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Minute
	}

	cronLog := cron.PrintfLogger(zap.NewStdLog(lg.Named("cron")))
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog)),
	)

	return &Beat{cron: c, lg: lg, jobTimeout: jobTimeout}
}

// Register wires every enabled entry to its job. Unknown job names and
// invalid cron expressions are startup errors.
func (b *Beat) Register(entries []config.BeatEntry, reg *jobs.Registry) error {
	for _, e := range entries {
		if e.Disabled {
			b.lg.Info("beat entry disabled", zap.String("job", e.Name))
			continue
		}

		j, ok := reg.Get(e.Name)
		if !ok {
			return fmt.Errorf("beat: unknown job %q (registered: %v)", e.Name, reg.Names())
		}

		job := j
		if _, err := b.cron.AddFunc(e.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), b.jobTimeout)
			defer cancel()
			_ = jobs.Run(ctx, b.lg, job)
		}); err != nil {
			return fmt.Errorf("beat: schedule %q for job %q: %w", e.Schedule, e.Name, err)
		}

		b.lg.Info("beat entry registered",
			zap.String("job", e.Name),
			zap.String("schedule", e.Schedule),
		)
	}
	return nil
}

func (b *Beat) Start() { b.cron.Start() }

// Stop halts scheduling and waits for in-flight jobs to finish.
func (b *Beat) Stop() {
	<-b.cron.Stop().Done()
}
