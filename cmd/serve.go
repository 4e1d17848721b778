package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobscout/internal/logger"
	"github.com/spigell/jobscout/internal/pipeline"
	"github.com/spigell/jobscout/internal/runlog"
)

const defaultSchedule = "@every 6h"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the search pipeline on a schedule",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("schedule", "", "cron schedule for pipeline runs (default \"@every 6h\")")

	viper.BindPFlag("schedule", serveCmd.Flags().Lookup("schedule"))
}

func serve() {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	d, err := buildDeps(ctx, config, zlog)
	if err != nil {
		zlog.Fatal("wiring dependencies", zap.Error(err))
	}
	defer d.Close()

	schedule := viper.GetString("schedule")
	if schedule == "" {
		schedule = config.Schedule
	}
	if schedule == "" {
		schedule = defaultSchedule
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		scheduledRun(ctx, d, zlog)
	}); err != nil {
		zlog.Fatal("registering schedule", zap.String("schedule", schedule), zap.Error(err))
	}

	c.Start()
	zlog.Info("scheduler started", zap.String("schedule", schedule))

	// One immediate run so results appear without waiting for the
	// first tick.
	go scheduledRun(ctx, d, zlog)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zlog.Info("shutting down scheduler")
	<-c.Stop().Done()
}

// scheduledRun executes one pipeline run and persists its report.
// Failures are logged, never fatal: the next tick gets a fresh try.
func scheduledRun(ctx context.Context, d *deps, zlog *zap.Logger) {
	result, runErr := d.pipeline.Run(ctx, pipeline.Options{})

	if result != nil && result.RunLog != nil {
		if name, err := runlog.SaveDaily(ctx, d.reports, result.RunLog, time.Now()); err != nil {
			zlog.Error("saving run report", zap.Error(err))
		} else {
			zlog.Info("run report saved", zap.String("report", name))
		}
	}

	if runErr != nil {
		zlog.Error("scheduled pipeline run failed", zap.Error(runErr))
		return
	}

	zlog.Info("scheduled pipeline run complete",
		zap.Int("new_listings_found", result.NewListingsFound),
		zap.Int("profiles_searched", result.ProfilesSearched),
	)
}
