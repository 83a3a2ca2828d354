package jobs

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jmehdipour/crmbeat/internal/metrics"
)

// Job is one scheduled unit of work. Implementations append their outcome
// to their own job log file; the returned error is for metrics and for the
// caller's exit semantics.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// GraphQLClient is what the jobs need from internal/gqlclient.
type GraphQLClient interface {
	Do(ctx context.Context, query string, vars map[string]any, out any) error
}

// Registry resolves beat entry names to jobs.
type Registry struct {
	jobs map[string]Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{jobs: make(map[string]Job, len(jobs))}
	for _, j := range jobs {
		r.jobs[j.Name()] = j
	}
	return r
}

func (r *Registry) Get(name string) (Job, bool) {
	j, ok := r.jobs[name]
	return j, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for n := range r.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run executes a job and records duration and outcome. The error comes
// back to the caller: beat logs it and keeps scheduling, `run` turns it
// into an exit code where the job calls for one.
func Run(ctx context.Context, lg *zap.Logger, j Job) error {
	start := time.Now()
	err := j.Run(ctx)
	took := time.Since(start)
	metrics.JobDuration.WithLabelValues(j.Name()).Observe(took.Seconds())

	if err != nil {
		metrics.JobsTotal.WithLabelValues(j.Name(), "error").Inc()
		lg.Error("job failed",
			zap.String("job", j.Name()),
			zap.Duration("took", took),
			zap.Error(err),
		)
		return err
	}

	metrics.JobsTotal.WithLabelValues(j.Name(), "ok").Inc()
	lg.Info("job done",
		zap.String("job", j.Name()),
		zap.Duration("took", took),
	)
	return nil
}
