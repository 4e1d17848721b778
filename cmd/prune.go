package cmd

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobscout/internal/logger"
	"github.com/spigell/jobscout/internal/runlog"
	"github.com/spigell/jobscout/internal/store"
)

var pruneCmd = &cobra.Command{
	Use:   "prune-reports",
	Short: "Delete run reports older than the retention window",
	Run: func(_ *cobra.Command, _ []string) {
		prune()
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}

func prune() {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	if config.Reports == nil || config.Reports.RedisURL == "" {
		zlog.Fatal("report pruning requires a reports redis url", zap.Error(errors.New("reports.redis-url or REDIS_URL is not set")))
	}

	reports, err := store.NewRedisReports(ctx, config.Reports.RedisURL)
	if err != nil {
		zlog.Fatal("connecting to report storage", zap.Error(err))
	}
	defer reports.Close()

	deleted, err := runlog.Prune(ctx, reports, time.Now())
	if err != nil {
		zlog.Fatal("pruning reports", zap.Int("deleted_before_failure", deleted), zap.Error(err))
	}

	zlog.Info("report pruning complete", zap.Int("deleted", deleted))
}
