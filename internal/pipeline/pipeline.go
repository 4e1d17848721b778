// Package pipeline drives one end-to-end search run: build queries
// per profile, fetch listings, dedupe, score, persist, and keep the
// run log and counters current throughout.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/jobscout/internal/listing"
	"github.com/spigell/jobscout/internal/profile"
	"github.com/spigell/jobscout/internal/runlog"
	"github.com/spigell/jobscout/internal/scoring"
	"github.com/spigell/jobscout/internal/search"
)

// ErrProfileLoad marks a failure loading the profiles to search.
// Fatal: the whole run aborts.
var ErrProfileLoad = errors.New("loading profiles failed")

// Run log categories.
const (
	CategoryPipeline = "pipeline"
	CategorySearch   = "search"
	CategoryDedup    = "dedup"
	CategoryScoring  = "scoring"
	CategoryPersist  = "persist"
)

// Store is the persistence collaborator. Its uniqueness constraint on
// the listing URL is the final dedup authority across overlapping
// runs.
type Store interface {
	// ActiveProfiles returns the profiles to search, optionally
	// scoped to one profile id.
	ActiveProfiles(ctx context.Context, profileID string) ([]*profile.CandidateProfile, error)
	// Filter returns the filter set for a profile, or nil when none
	// is stored.
	Filter(ctx context.Context, profileID string) (*profile.SearchFilter, error)
	// ExistingURLs answers a batched "already persisted" lookup.
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
	InsertListing(ctx context.Context, l *listing.Normalized, result *scoring.MatchResult) error
}

// Searcher fetches raw listings for one query string.
type Searcher interface {
	Search(ctx context.Context, query string, f *profile.SearchFilter) ([]*listing.Raw, error)
}

// Scorer scores all surviving candidates for one profile.
type Scorer interface {
	ScoreAll(ctx context.Context, p *profile.CandidateProfile, f *profile.SearchFilter, candidates []*listing.Normalized) []*scoring.MatchResult
}

type Pipeline struct {
	store    Store
	searcher Searcher
	scorer   Scorer
	logger   *zap.Logger
}

func New(store Store, searcher Searcher, scorer Scorer, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		searcher: searcher,
		scorer:   scorer,
		logger:   logger,
	}
}

// Options scope a run.
type Options struct {
	// ProfileID limits the run to a single profile when set.
	ProfileID string
}

// ProfileSummary is the per-profile breakdown of one run.
type ProfileSummary struct {
	ProfileID        string
	QueriesBuilt     int
	ListingsReturned int
	Candidates       int
	Inserted         int
	InsertErrors     int
}

// Summary aggregates counters for one run. Finalized once at run end.
type Summary struct {
	QueriesBuilt     int
	ListingsReturned int
	Candidates       int
	NewListings      int
	InsertErrors     int
	ProfilesSearched int

	ScoreHigh int
	ScoreLow  int
	ScoreAvg  int

	Profiles []ProfileSummary

	scoreSum int
	scored   int
}

func (s *Summary) observeScore(score int) {
	if s.scored == 0 || score > s.ScoreHigh {
		s.ScoreHigh = score
	}
	if s.scored == 0 || score < s.ScoreLow {
		s.ScoreLow = score
	}
	s.scoreSum += score
	s.scored++
}

func (s *Summary) finalize() {
	if s.scored > 0 {
		s.ScoreAvg = s.scoreSum / s.scored
	}
}

// Result is what a run returns to its caller. The caller owns
// persisting the run log.
type Result struct {
	NewListingsFound int
	ProfilesSearched int
	Summary          *Summary
	RunLog           *runlog.Log
}

// Run executes the pipeline. Only configuration and profile-load
// failures are fatal; everything else is scoped to a query or a
// candidate and logged without aborting sibling work.
func (pl *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	log := runlog.New()
	summary := &Summary{}

	log.Info(CategoryPipeline, "run started")

	profiles, err := pl.store.ActiveProfiles(ctx, opts.ProfileID)
	if err != nil {
		log.Error(CategoryPipeline, fmt.Sprintf("loading profiles: %s", err))
		return &Result{Summary: summary, RunLog: log}, fmt.Errorf("%w: %v", ErrProfileLoad, err)
	}

	log.Info(CategoryPipeline, fmt.Sprintf("searching for %d profile(s)", len(profiles)))

	for _, p := range profiles {
		if err := pl.runProfile(ctx, p, log, summary); err != nil {
			// Only configuration failures propagate this far.
			log.Error(CategoryPipeline, fmt.Sprintf("run aborted: %s", err))
			summary.finalize()
			return &Result{
				NewListingsFound: summary.NewListings,
				ProfilesSearched: summary.ProfilesSearched,
				Summary:          summary,
				RunLog:           log,
			}, err
		}
		summary.ProfilesSearched++
	}

	summary.finalize()
	log.Info(CategoryPipeline, fmt.Sprintf(
		"run finished: %d new listing(s) across %d profile(s), %d insert error(s)",
		summary.NewListings, summary.ProfilesSearched, summary.InsertErrors,
	))

	return &Result{
		NewListingsFound: summary.NewListings,
		ProfilesSearched: summary.ProfilesSearched,
		Summary:          summary,
		RunLog:           log,
	}, nil
}

func (pl *Pipeline) runProfile(ctx context.Context, p *profile.CandidateProfile, log *runlog.Log, summary *Summary) error {
	f := pl.loadFilter(ctx, p.ID, log)

	queries := search.BuildQueries(p, f)
	summary.QueriesBuilt += len(queries)
	ps := ProfileSummary{ProfileID: p.ID, QueriesBuilt: len(queries)}

	log.Info(CategorySearch, fmt.Sprintf("profile %s: built %d quer%s", p.ID, len(queries), plural(len(queries), "y", "ies")))

	deduper := listing.NewDeduper(pl.logger)
	var candidates []*listing.Normalized

	for _, query := range queries {
		raws, err := pl.searcher.Search(ctx, query, f)
		if err != nil {
			if errors.Is(err, search.ErrMissingAPIKey) {
				log.Error(CategorySearch, err.Error())
				return err
			}
			log.Error(CategorySearch, fmt.Sprintf("profile %s: query %q failed: %s", p.ID, query, err))
			continue
		}

		summary.ListingsReturned += len(raws)
		ps.ListingsReturned += len(raws)

		normalized := make([]*listing.Normalized, 0, len(raws))
		for _, raw := range raws {
			normalized = append(normalized, listing.Normalize(p.ID, raw))
		}

		known, err := pl.store.ExistingURLs(ctx, listing.URLs(normalized))
		if err != nil {
			// Existence lookup is a cost optimization; the insert
			// constraint still catches duplicates.
			log.Warn(CategoryDedup, fmt.Sprintf("profile %s: existence lookup failed, relying on insert constraint: %s", p.ID, err))
			known = nil
		}

		survivors, step := deduper.Filter(normalized, f, known)
		log.Info(CategoryDedup, fmt.Sprintf(
			"profile %s: query %q: %d returned, %d dropped (%d excluded company, %d no url, %d duplicate, %d remote mismatch), %d kept",
			p.ID, query, step.Initial,
			step.Initial-step.Left,
			step.ExcludedCompany, step.MissingURL, step.Duplicate, step.RemoteMismatch,
			step.Left,
		))

		candidates = append(candidates, survivors...)
	}

	summary.Candidates += len(candidates)
	ps.Candidates = len(candidates)

	if len(candidates) == 0 {
		log.Info(CategoryScoring, fmt.Sprintf("profile %s: no candidates to score", p.ID))
		summary.Profiles = append(summary.Profiles, ps)
		return nil
	}

	log.Info(CategoryScoring, fmt.Sprintf("profile %s: scoring %d candidate(s)", p.ID, len(candidates)))

	results := pl.scorer.ScoreAll(ctx, p, f, candidates)

	defaulted := 0
	for _, r := range results {
		if r.Defaulted {
			defaulted++
		}
		summary.observeScore(r.Score)
	}
	if defaulted > 0 {
		log.Warn(CategoryScoring, fmt.Sprintf("profile %s: %d score(s) defaulted after scoring failures", p.ID, defaulted))
	}

	for i, candidate := range candidates {
		if err := pl.store.InsertListing(ctx, candidate, results[i]); err != nil {
			summary.InsertErrors++
			ps.InsertErrors++
			log.Error(CategoryPersist, fmt.Sprintf("profile %s: insert %q failed: %s", p.ID, candidate.URL, err))
			continue
		}
		summary.NewListings++
		ps.Inserted++
	}

	log.Info(CategoryPersist, fmt.Sprintf("profile %s: inserted %d listing(s), %d error(s)", p.ID, ps.Inserted, ps.InsertErrors))

	summary.Profiles = append(summary.Profiles, ps)
	return nil
}

func (pl *Pipeline) loadFilter(ctx context.Context, profileID string, log *runlog.Log) *profile.SearchFilter {
	f, err := pl.store.Filter(ctx, profileID)
	if err != nil {
		log.Warn(CategoryPipeline, fmt.Sprintf("profile %s: loading filter failed, using defaults: %s", profileID, err))
		return profile.DefaultFilter()
	}
	if f == nil {
		return profile.DefaultFilter()
	}

	f.Normalize()
	return f
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
