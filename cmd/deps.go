package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobscout/internal/logger"
	"github.com/spigell/jobscout/internal/pipeline"
	"github.com/spigell/jobscout/internal/scoring"
	"github.com/spigell/jobscout/internal/search"
	"github.com/spigell/jobscout/internal/secrets"
	"github.com/spigell/jobscout/internal/store"
)

// deps holds the wired collaborators shared by the run and serve
// commands.
type deps struct {
	pipeline *pipeline.Pipeline
	listings *store.Postgres
	reports  *store.RedisReports
}

func (d *deps) Close() {
	if d.listings != nil {
		d.listings.Close()
	}
	if d.reports != nil {
		d.reports.Close()
	}
}

func buildDeps(ctx context.Context, config *Config, zlog *zap.Logger) (*deps, error) {
	if config.Database == nil || config.Database.URL == "" {
		return nil, errors.New("database url is required (database.url or DATABASE_URL)")
	}
	if config.Reports == nil || config.Reports.RedisURL == "" {
		return nil, errors.New("reports redis url is required (reports.redis-url or REDIS_URL)")
	}

	listings, err := store.NewPostgres(ctx, config.Database.URL, zlog)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	reports, err := store.NewRedisReports(ctx, config.Reports.RedisURL)
	if err != nil {
		listings.Close()
		return nil, fmt.Errorf("connecting to report storage: %w", err)
	}

	searchKey := resolveSearchKey(config, zlog)

	scorer, err := buildScorer(ctx, config.AI, zlog)
	if err != nil {
		listings.Close()
		reports.Close()
		return nil, fmt.Errorf("building scorer: %w", err)
	}

	client := search.NewClient(searchKey, zlog)

	return &deps{
		pipeline: pipeline.New(listings, client, scorer, zlog),
		listings: listings,
		reports:  reports,
	}, nil
}

// resolveSearchKey loads the search service api key. A missing key is
// not fatal here: the client reports it as a configuration error
// during the run, where it lands in the run log.
func resolveSearchKey(config *Config, zlog *zap.Logger) string {
	if config.Search == nil {
		return ""
	}

	key, err := secrets.Load(secrets.Source{
		Name:  "serpapi key",
		Value: config.Search.APIKey,
		File:  config.Search.APIKeyFile,
	})
	if err != nil {
		zlog.Warn("search api key not resolved", zap.Error(err))
		return ""
	}

	return key
}

func buildScorer(ctx context.Context, config *AIConfig, zlog *zap.Logger) (*scoring.Scorer, error) {
	if config == nil || config.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(config.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", config.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.Gemini.APIKey,
		File:  config.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key, ai.gemini.api-key-file, or GEMINI_API_KEY)", err)
	}

	generator, err := scoring.NewGeminiGenerator(ctx, apiKey, config.Gemini.Model)
	if err != nil {
		return nil, err
	}

	scorerLogger := logger.WithCommonFields(zlog, "gemini", generator.Model())

	return scoring.NewScorer(generator, scorerLogger), nil
}
