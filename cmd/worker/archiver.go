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

	"github.com/jmehdipour/crmbeat/internal/config"
	"github.com/jmehdipour/crmbeat/internal/db"
	"github.com/jmehdipour/crmbeat/internal/kafka"
	"github.com/jmehdipour/crmbeat/internal/logger"
	"github.com/jmehdipour/crmbeat/internal/metrics"
	"github.com/jmehdipour/crmbeat/internal/repository"
	"github.com/jmehdipour/crmbeat/internal/worker"
)

var archiverCmd = &cobra.Command{
	Use:   "archiver",
	Short: "Run the purge archiver (Kafka -> ClickHouse)",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level, cfg.Log.Dev)

		metrics.MustRegister(prometheus.DefaultRegisterer)

		// 2) clickhouse archive
		chDB, err := db.NewClickHouse(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("clickhouse connect: %w", err)
		}
		defer func() { _ = chDB.Close() }()

		archive := repository.NewPurgeArchiveRepository(chDB)

		// 3) kafka consumer
		consumer := kafka.NewConsumer(cfg.Kafka)
		defer consumer.Close()

		w := worker.NewArchiver(consumer, archive)

		// tune knobs
		if cfg.Archiver.BatchSize > 0 {
			w.BatchSize = cfg.Archiver.BatchSize
		}
		if cfg.Archiver.BatchWait > 0 {
			w.BatchWait = cfg.Archiver.BatchWait
		}

		// 4) graceful shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Printf(">> archiver started topic=%s group=%s batchSize=%d batchWait=%s",
			cfg.Kafka.Topic, cfg.Kafka.GroupID, w.BatchSize, w.BatchWait)

		return w.Run(ctx)
	},
}
