package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jmehdipour/crmbeat/internal/broker"
	"github.com/jmehdipour/crmbeat/internal/config"
	"github.com/jmehdipour/crmbeat/internal/db"
	"github.com/jmehdipour/crmbeat/internal/gqlclient"
	"github.com/jmehdipour/crmbeat/internal/joblog"
	"github.com/jmehdipour/crmbeat/internal/logger"
	"github.com/jmehdipour/crmbeat/internal/metrics"
	"github.com/jmehdipour/crmbeat/internal/worker"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Run the report worker (consumes queued report tasks)",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level, cfg.Log.Dev)

		metrics.MustRegister(prometheus.DefaultRegisterer)

		// 2) redis queue
		redisClient, err := db.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		queue := broker.New(redisClient, cfg.Broker)
		gql := gqlclient.New(cfg.GraphQL.Endpoint, cfg.GraphQL.Timeout)

		w := worker.NewReports(
			queue,
			gql,
			joblog.New(cfg.Logs.Dir, cfg.Logs.ReportFile),
			joblog.New(cfg.Logs.Dir, cfg.Logs.ReportConciseFile),
		)

		// tune knobs
		if cfg.Broker.PollTimeout > 0 {
			w.PollTimeout = cfg.Broker.PollTimeout
		}
		if cfg.Report.MaxRetries > 0 {
			w.MaxRetries = cfg.Report.MaxRetries
		}
		if cfg.Report.RetryDelay > 0 {
			w.RetryDelay = cfg.Report.RetryDelay
		}
		if cfg.Report.RecentDays > 0 {
			w.RecentDays = cfg.Report.RecentDays
		}

		// 3) graceful shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Printf(">> reports worker started queue=%s maxRetries=%d retryDelay=%s",
			cfg.Broker.QueueKey, w.MaxRetries, w.RetryDelay)

		return w.Run(ctx)
	},
}
