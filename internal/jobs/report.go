package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jmehdipour/crmbeat/internal/model"
)

// ReportEnqueue is the beat side of report generation: it only pushes a
// task onto the queue, the report worker does the heavy lifting. The beat
// entry name doubles as the report period.
type ReportEnqueue struct {
	Queue TaskQueue
	Type  model.ReportType
}

// TaskQueue is what enqueue-only jobs need from internal/broker.
type TaskQueue interface {
	Enqueue(ctx context.Context, t model.Task) error
}

func (r *ReportEnqueue) Name() string { return string(r.Type) + "_report" }

func (r *ReportEnqueue) Run(ctx context.Context) error {
	rt := r.Type
	if !rt.Valid() {
		rt = model.ReportWeekly
	}

	task := model.NewReportTask(rt, time.Now())
	if err := r.Queue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Name, err)
	}
	return nil
}

var _ Job = (*ReportEnqueue)(nil)
