package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmehdipour/crmbeat/internal/config"
	"github.com/jmehdipour/crmbeat/internal/db"
	"github.com/jmehdipour/crmbeat/internal/jobs"
	"github.com/jmehdipour/crmbeat/internal/logger"
)

// exitOnErr marks jobs whose one-shot failure flips the exit code. The
// cleanup job swallows its errors after logging them; the reminders job
// reports failure to the caller.
var exitOnErr = map[string]bool{
	"order_reminders": true,
}

var runCmd = &cobra.Command{
	Use:   "run <job>",
	Short: "Run a single job once and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level, cfg.Log.Dev)

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

		name := args[0]
		j, ok := registry.Get(name)
		if !ok {
			return fmt.Errorf("unknown job %q (available: %v)", name, registry.Names())
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if cfg.Beat.JobTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Beat.JobTimeout)
			defer cancel()
		}

		if err := jobs.Run(ctx, logger.Log, j); err != nil && exitOnErr[name] {
			return err
		}
		return nil
	},
}
