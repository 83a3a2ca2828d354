package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jmehdipour/crmbeat/internal/broker"
	"github.com/jmehdipour/crmbeat/internal/config"
	"github.com/jmehdipour/crmbeat/internal/db"
	"github.com/jmehdipour/crmbeat/internal/gqlclient"
	"github.com/jmehdipour/crmbeat/internal/joblog"
	"github.com/jmehdipour/crmbeat/internal/jobs"
	"github.com/jmehdipour/crmbeat/internal/logger"
	"github.com/jmehdipour/crmbeat/internal/metrics"
	"github.com/jmehdipour/crmbeat/internal/model"
	"github.com/jmehdipour/crmbeat/internal/repository"
	"github.com/jmehdipour/crmbeat/internal/scheduler"
	"github.com/jmehdipour/crmbeat/internal/service/cleanup"
)

var beatCmd = &cobra.Command{
	Use:   "beat",
	Short: "Run the cron scheduler (heartbeat, cleanup, reminders, reports)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level, cfg.Log.Dev)

		metrics.MustRegister(prometheus.DefaultRegisterer)

		mysqlDB, err := db.NewMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer mysqlDB.Close()

		redisClient, err := db.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		registry := buildRegistry(cfg, mysqlDB, redisClient)

		beat := scheduler.New(logger.Log, cfg.Beat.JobTimeout)
		if err := beat.Register(cfg.Beat.Entries, registry); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		beat.Start()
		log.Printf(">> beat started jobs=%v", registry.Names())

		<-ctx.Done()
		log.Printf("shutting down beat...")
		beat.Stop()
		return nil
	},
}

// buildRegistry wires every schedulable job; `run` resolves one-shots
// against the same set.
func buildRegistry(cfg config.Config, mysqlDB *sqlx.DB, redisClient *redis.Client) *jobs.Registry {
	gql := gqlclient.New(cfg.GraphQL.Endpoint, cfg.GraphQL.Timeout)
	queue := broker.New(redisClient, cfg.Broker)

	customersRepo := repository.NewCustomersRepository(mysqlDB)
	outboxRepo := repository.NewPurgeOutboxRepository(mysqlDB)
	cleanupSvc := cleanup.New(mysqlDB, customersRepo, outboxRepo, cfg.Cleanup.OutboxTopic)

	logs := cfg.Logs
	return jobs.NewRegistry(
		&jobs.Heartbeat{
			Log: joblog.New(logs.Dir, logs.HeartbeatFile),
			GQL: gql,
		},
		&jobs.CleanupInactive{
			Log:     joblog.New(logs.Dir, logs.CleanupFile),
			Service: cleanupSvc,
			Days:    cfg.Cleanup.InactiveDays,
		},
		&jobs.OrderReminders{
			Log:  joblog.New(logs.Dir, logs.RemindersFile),
			GQL:  gql,
			Days: cfg.Reminders.WindowDays,
		},
		&jobs.LowStockUpdate{
			Log:         joblog.New(logs.Dir, logs.LowStockFile),
			GQL:         gql,
			IncrementBy: cfg.LowStock.IncrementBy,
		},
		&jobs.ReportEnqueue{Queue: queue, Type: model.ReportWeekly},
		&jobs.ReportEnqueue{Queue: queue, Type: model.ReportDaily},
		&jobs.ReportEnqueue{Queue: queue, Type: model.ReportMonthly},
	)
}
