// Package scoring evaluates normalized listings against a candidate
// profile with an AI text-scoring service. Scoring never drops a
// candidate: any failure resolves to the neutral fallback score.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/jobscout/internal/listing"
	"github.com/spigell/jobscout/internal/profile"
	"github.com/spigell/jobscout/internal/utils"
)

//go:embed prompt_single.md
var singlePromptTemplate string

//go:embed prompt_batch.md
var batchPromptTemplate string

const (
	defaultScore = 50

	batchSize = 5

	singleTimeout = 15 * time.Second
	batchTimeout  = 30 * time.Second

	// Pause between batches to stay under upstream rate limits.
	batchDelay = time.Second

	singleDescriptionLimit = 2000
	batchDescriptionLimit  = 1500

	maxLogLength = 200
)

// ErrTimeout marks a scoring call that exceeded its deadline. The
// in-flight request is abandoned, not cancelled.
var ErrTimeout = errors.New("scoring deadline exceeded")

// ErrShapeMismatch marks a batch response whose length does not match
// the submitted candidate count.
var ErrShapeMismatch = errors.New("batch result count mismatch")

// MatchResult is the outcome of scoring one candidate listing.
type MatchResult struct {
	Score     int
	Reasoning string
	// Defaulted is set when the score is the fallback value rather
	// than a model answer. Not persisted; the orchestrator uses it
	// for run accounting.
	Defaulted bool
}

// Generator produces a text completion for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type Scorer struct {
	generator Generator
	logger    *zap.Logger

	BatchSize     int
	SingleTimeout time.Duration
	BatchTimeout  time.Duration
	BatchDelay    time.Duration
}

func NewScorer(generator Generator, logger *zap.Logger) *Scorer {
	return &Scorer{
		generator:     generator,
		logger:        logger,
		BatchSize:     batchSize,
		SingleTimeout: singleTimeout,
		BatchTimeout:  batchTimeout,
		BatchDelay:    batchDelay,
	}
}

// ScoreAll scores every candidate, in order, chunking into batches of
// BatchSize with a fixed delay between upstream calls. A single
// residual candidate after chunking goes through the single-entry
// path instead of a one-element batch.
func (s *Scorer) ScoreAll(ctx context.Context, p *profile.CandidateProfile, f *profile.SearchFilter, candidates []*listing.Normalized) []*MatchResult {
	results := make([]*MatchResult, 0, len(candidates))

	for start := 0; start < len(candidates); start += s.BatchSize {
		if start > 0 {
			if err := utils.WaitFor(ctx, s.BatchDelay); err != nil {
				s.logger.Warn("inter-batch delay interrupted", zap.Error(err))
			}
		}

		end := start + s.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		results = append(results, s.ScoreBatch(ctx, p, f, candidates[start:end])...)
	}

	return results
}

// ScoreBatch scores a group of candidates with one upstream call,
// returning results positionally aligned with the input. Batches of
// one are routed through ScoreOne.
func (s *Scorer) ScoreBatch(ctx context.Context, p *profile.CandidateProfile, f *profile.SearchFilter, candidates []*listing.Normalized) []*MatchResult {
	if len(candidates) == 0 {
		return nil
	}

	if len(candidates) == 1 {
		return []*MatchResult{s.ScoreOne(ctx, p, f, candidates[0])}
	}

	prompt := buildBatchPrompt(p, f, candidates)

	s.logger.Debug("batch scoring request",
		zap.Int("candidates", len(candidates)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, maxLogLength)),
	)

	raw, err := s.generate(ctx, prompt, s.BatchTimeout)
	if err != nil {
		s.logger.Warn("batch scoring failed, defaulting scores",
			zap.Int("candidates", len(candidates)),
			zap.Error(err),
		)
		return fallbackResults(len(candidates), err)
	}

	results, err := parseBatch(raw, len(candidates))
	if err != nil {
		s.logger.Warn("batch scoring response unusable, defaulting scores",
			zap.Int("candidates", len(candidates)),
			zap.Error(err),
		)
		return fallbackResults(len(candidates), err)
	}

	return results
}

// ScoreOne scores a single candidate.
func (s *Scorer) ScoreOne(ctx context.Context, p *profile.CandidateProfile, f *profile.SearchFilter, candidate *listing.Normalized) *MatchResult {
	prompt := buildSinglePrompt(p, f, candidate)

	s.logger.Debug("scoring request",
		zap.String("title", candidate.Title),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, maxLogLength)),
	)

	raw, err := s.generate(ctx, prompt, s.SingleTimeout)
	if err != nil {
		s.logger.Warn("scoring failed, defaulting score",
			zap.String("title", candidate.Title),
			zap.String("company", candidate.Company),
			zap.Error(err),
		)
		return fallbackResult(err)
	}

	result, err := parseSingle(raw)
	if err != nil {
		s.logger.Warn("scoring response unusable, defaulting score",
			zap.String("title", candidate.Title),
			zap.Error(err),
		)
		return fallbackResult(err)
	}

	return result
}

type generation struct {
	raw string
	err error
}

// generate races the upstream call against a deadline. On deadline
// the in-flight call is left to finish on its own and its result is
// discarded.
func (s *Scorer) generate(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan generation, 1)
	go func() {
		raw, err := s.generator.GenerateContent(ctx, prompt)
		done <- generation{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrTimeout
	case g := <-done:
		if g.err != nil {
			if errors.Is(g.err, context.DeadlineExceeded) {
				return "", ErrTimeout
			}
			return "", g.err
		}
		return g.raw, nil
	}
}

func fallbackResults(n int, cause error) []*MatchResult {
	results := make([]*MatchResult, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, fallbackResult(cause))
	}

	return results
}

func fallbackResult(cause error) *MatchResult {
	return &MatchResult{
		Score:     defaultScore,
		Reasoning: fmt.Sprintf("Score defaulted to %d: %s", defaultScore, cause),
		Defaulted: true,
	}
}

func buildSinglePrompt(p *profile.CandidateProfile, f *profile.SearchFilter, candidate *listing.Normalized) string {
	prompt := strings.ReplaceAll(singlePromptTemplate, "{{PROFILE}}", profileBlock(p, f))
	return strings.ReplaceAll(prompt, "{{LISTING}}", listingBlock(candidate, singleDescriptionLimit))
}

func buildBatchPrompt(p *profile.CandidateProfile, f *profile.SearchFilter, candidates []*listing.Normalized) string {
	var listings strings.Builder
	for i, candidate := range candidates {
		fmt.Fprintf(&listings, "Listing %d:\n%s\n\n", i+1, listingBlock(candidate, batchDescriptionLimit))
	}

	prompt := strings.ReplaceAll(batchPromptTemplate, "{{PROFILE}}", profileBlock(p, f))
	prompt = strings.ReplaceAll(prompt, "{{COUNT}}", fmt.Sprintf("%d", len(candidates)))
	return strings.ReplaceAll(prompt, "{{LISTINGS}}", strings.TrimSpace(listings.String()))
}

func profileBlock(p *profile.CandidateProfile, f *profile.SearchFilter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Job titles: %s\n", joinOrNone(p.JobTitles))
	fmt.Fprintf(&b, "- Skills: %s\n", joinOrNone(p.Skills))
	fmt.Fprintf(&b, "- Years of experience: %d\n", p.YearsExperience)
	fmt.Fprintf(&b, "- Industries: %s\n", joinOrNone(p.Industries))
	fmt.Fprintf(&b, "- Target seniority: %s", f.TargetSeniority)
	return b.String()
}

func listingBlock(candidate *listing.Normalized, descriptionLimit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Title: %s\n", candidate.Title)
	fmt.Fprintf(&b, "- Company: %s\n", candidate.Company)
	if candidate.Location != "" {
		fmt.Fprintf(&b, "- Location: %s\n", candidate.Location)
	}
	if candidate.SalaryText != "" {
		fmt.Fprintf(&b, "- Salary: %s\n", candidate.SalaryText)
	}
	fmt.Fprintf(&b, "- Description: %s", truncate(candidate.Description, descriptionLimit))
	return b.String()
}

// truncate bounds the description to limit runes to keep prompt size
// predictable.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit]) + "..."
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}

	return strings.Join(items, ", ")
}
