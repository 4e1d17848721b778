package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobscout/internal/logger"
	"github.com/spigell/jobscout/internal/pipeline"
	"github.com/spigell/jobscout/internal/runlog"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the search pipeline once",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("profile", "p", "", "limit the run to a single profile id")
}

// run is the one-shot pipeline command.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	zlog.Info("starting jobscout", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	zlog.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	d, err := buildDeps(ctx, config, zlog)
	if err != nil {
		zlog.Fatal("wiring dependencies", zap.Error(err))
	}
	defer d.Close()

	opts := pipeline.Options{ProfileID: cmd.Flag("profile").Value.String()}

	result, runErr := d.pipeline.Run(ctx, opts)

	// The run log is persisted even when the run aborted: a fatal
	// run still leaves a report behind.
	if result != nil && result.RunLog != nil {
		name, err := runlog.SaveDaily(ctx, d.reports, result.RunLog, time.Now())
		if err != nil {
			zlog.Error("saving run report", zap.Error(err))
		} else {
			zlog.Info("run report saved", zap.String("report", name))
		}
	}

	if runErr != nil {
		zlog.Fatal("pipeline run failed", zap.Error(runErr))
	}

	zlog.Info("pipeline run complete",
		zap.Int("new_listings_found", result.NewListingsFound),
		zap.Int("profiles_searched", result.ProfilesSearched),
		zap.Int("queries_built", result.Summary.QueriesBuilt),
		zap.Int("insert_errors", result.Summary.InsertErrors),
	)
}
