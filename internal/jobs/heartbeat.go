package jobs

import (
	"context"
	"time"

	"github.com/jmehdipour/crmbeat/internal/joblog"
)

const heartbeatTimeLayout = "02/01/2006-15:04:05"

// Heartbeat appends a liveness line on every run, then probes the GraphQL
// endpoint with { hello }. An unreachable endpoint goes into the log but
// does not fail the job.
type Heartbeat struct {
	Log *joblog.Writer
	GQL GraphQLClient
}

func (h *Heartbeat) Name() string { return "heartbeat" }

func (h *Heartbeat) Run(ctx context.Context) error {
	ts := time.Now().Format(heartbeatTimeLayout)

	if err := h.Log.Appendf("%s CRM is alive", ts); err != nil {
		return err
	}

	var out struct {
		Hello string `json:"hello"`
	}
	if err := h.GQL.Do(ctx, `query { hello }`, nil, &out); err != nil {
		return h.Log.Appendf("%s GraphQL check failed: %v", ts, err)
	}
	return h.Log.Appendf("%s GraphQL endpoint response: %s", ts, out.Hello)
}
