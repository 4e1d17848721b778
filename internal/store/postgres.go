// Package store provides the concrete persistence collaborators: a
// Postgres listing store and a Redis report blob store.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spigell/jobscout/internal/listing"
	"github.com/spigell/jobscout/internal/profile"
	"github.com/spigell/jobscout/internal/scoring"
)

// Postgres implements pipeline.Store on a pgx connection pool. The
// job_listings.url unique constraint is the final dedup authority: a
// duplicate insert fails here and is counted by the orchestrator as
// an insert error.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(ctx context.Context, databaseURL string, logger *zap.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return &Postgres{pool: pool, logger: logger}, nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) ActiveProfiles(ctx context.Context, profileID string) ([]*profile.CandidateProfile, error) {
	query := `SELECT id, summary, job_titles, skills, years_experience,
	                 education, certifications, industries
	          FROM candidate_profiles
	          WHERE is_active = true`
	args := []any{}
	if profileID != "" {
		query += ` AND id = $1`
		args = append(args, profileID)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidate_profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*profile.CandidateProfile
	for rows.Next() {
		var p profile.CandidateProfile
		if err := rows.Scan(
			&p.ID, &p.Summary, &p.JobTitles, &p.Skills, &p.YearsExperience,
			&p.Education, &p.Certifications, &p.Industries,
		); err != nil {
			return nil, fmt.Errorf("scan candidate_profiles: %w", err)
		}
		profiles = append(profiles, &p)
	}

	return profiles, rows.Err()
}

func (s *Postgres) Filter(ctx context.Context, profileID string) (*profile.SearchFilter, error) {
	var f profile.SearchFilter
	err := s.pool.QueryRow(ctx,
		`SELECT keywords, location, remote_preference, target_seniority,
		        min_salary, max_listing_age_days, excluded_companies
		 FROM search_filters
		 WHERE profile_id = $1`,
		profileID,
	).Scan(
		&f.Keywords, &f.Location, &f.RemotePreference, &f.TargetSeniority,
		&f.MinSalary, &f.MaxListingAgeDays, &f.ExcludedCompanies,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query search_filters: %w", err)
	}

	return &f, nil
}

func (s *Postgres) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	known := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return known, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT url FROM job_listings WHERE url = ANY($1)`,
		urls,
	)
	if err != nil {
		return nil, fmt.Errorf("query existing urls: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan existing url: %w", err)
		}
		known[url] = true
	}

	return known, rows.Err()
}

func (s *Postgres) InsertListing(ctx context.Context, l *listing.Normalized, result *scoring.MatchResult) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_listings
		   (profile_id, title, company, location, description, url,
		    source, posted_at, is_remote, salary_text,
		    match_score, match_reasoning, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'new')`,
		l.ProfileID, l.Title, l.Company,
		nullIfEmpty(l.Location), nullIfEmpty(l.Description), l.URL,
		l.Source, l.PostedAt, l.Remote, nullIfEmpty(l.SalaryText),
		result.Score, result.Reasoning,
	)
	if err != nil {
		return fmt.Errorf("insert job listing: %w", err)
	}

	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
