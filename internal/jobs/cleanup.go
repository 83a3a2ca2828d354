package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jmehdipour/crmbeat/internal/joblog"
	"github.com/jmehdipour/crmbeat/internal/metrics"
	"github.com/jmehdipour/crmbeat/internal/service/cleanup"
)

const jobTimeLayout = "2006-01-02 15:04:05"

// CleanupRunner is what the job needs from the cleanup service.
type CleanupRunner interface {
	Run(ctx context.Context, cutoff time.Time) (*cleanup.Result, error)
}

// CleanupInactive deletes customers with no orders, or whose latest order
// is older than Days. The delete and the purge-outbox insert happen in one
// transaction inside the service; on error nothing is deleted and the
// error string lands in the job log.
type CleanupInactive struct {
	Log     *joblog.Writer
	Service CleanupRunner
	Days    int
}

func (c *CleanupInactive) Name() string { return "cleanup_inactive" }

func (c *CleanupInactive) Run(ctx context.Context) error {
	days := c.Days
	if days <= 0 {
		days = 365
	}

	now := time.Now()
	cutoff := now.AddDate(0, 0, -days)
	ts := now.Format(jobTimeLayout)

	res, err := c.Service.Run(ctx, cutoff)
	if err != nil {
		werr := c.Log.Append(
			"",
			joblog.Banner(50),
			fmt.Sprintf("ERROR - %s", ts),
			fmt.Sprintf("Error: %v", err),
		)
		if werr != nil {
			return fmt.Errorf("%v (log write: %v)", err, werr)
		}
		return err
	}

	metrics.CustomersPurged.Add(float64(res.Deleted))

	lines := []string{
		"",
		joblog.Banner(50),
		fmt.Sprintf("Customer Cleanup - %s", ts),
		joblog.Banner(50),
		fmt.Sprintf("Cutoff: %s (%d days)", cutoff.Format(jobTimeLayout), days),
	}
	if res.Deleted == 0 {
		lines = append(lines, "No inactive customers found.")
	} else {
		lines = append(lines, fmt.Sprintf("Deleted %d inactive customers (batch %s)", res.Deleted, res.BatchID))
		for _, cust := range res.Customers {
			lines = append(lines, fmt.Sprintf("- %s (%s), last order: %s, orders: %d",
				cust.Name, cust.Email, formatLastOrder(cust.LastOrderDate), cust.OrderCount))
		}
	}
	lines = append(lines, joblog.Banner(50))

	return c.Log.Append(lines...)
}

func formatLastOrder(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format("2006-01-02")
}

var _ Job = (*CleanupInactive)(nil)
var _ CleanupRunner = (*cleanup.Service)(nil)
