package listing

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobscout/internal/profile"
)

// Step describes the result of one filtering pass, per drop reason.
type Step struct {
	Initial         int
	ExcludedCompany int
	MissingURL      int
	Duplicate       int
	RemoteMismatch  int
	Left            int
}

// Deduper filters normalized candidates before scoring. It keeps the
// set of URLs accepted earlier in the same run, so the same listing
// discovered by two queries is only accepted once. Cross-run safety
// is the store's uniqueness constraint, not this set.
type Deduper struct {
	accepted map[string]struct{}
	logger   *zap.Logger
}

func NewDeduper(logger *zap.Logger) *Deduper {
	return &Deduper{
		accepted: make(map[string]struct{}),
		logger:   logger,
	}
}

// Filter applies the drop rules in order: excluded company, missing
// dedup URL, already known (persisted or accepted this run), remote
// preference violation. known holds the persisted-existence answers
// for this batch of candidates.
func (d *Deduper) Filter(candidates []*Normalized, f *profile.SearchFilter, known map[string]bool) ([]*Normalized, Step) {
	step := Step{Initial: len(candidates)}
	survivors := make([]*Normalized, 0, len(candidates))

	for _, c := range candidates {
		switch {
		case companyExcluded(c.Company, f.ExcludedCompanies):
			step.ExcludedCompany++
			d.logger.Debug("dropping candidate by excluded company",
				zap.String("company", c.Company),
				zap.String("title", c.Title),
			)
		case c.URL == "":
			step.MissingURL++
			d.logger.Debug("dropping candidate without dedup url",
				zap.String("company", c.Company),
				zap.String("title", c.Title),
			)
		case known[c.URL] || d.seen(c.URL):
			step.Duplicate++
		case f.RemotePreference == profile.RemoteOnly && !c.Remote:
			step.RemoteMismatch++
		default:
			d.accepted[c.URL] = struct{}{}
			survivors = append(survivors, c)
		}
	}

	step.Left = len(survivors)
	return survivors, step
}

// URLs returns the dedup URLs of the given candidates, skipping
// empty ones, for the batched existence lookup.
func URLs(candidates []*Normalized) []string {
	urls := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.URL != "" {
			urls = append(urls, c.URL)
		}
	}

	return urls
}

func (d *Deduper) seen(url string) bool {
	_, ok := d.accepted[url]
	return ok
}

func companyExcluded(company string, fragments []string) bool {
	if company == "" || len(fragments) == 0 {
		return false
	}

	lower := strings.ToLower(company)
	for _, fragment := range fragments {
		fragment = strings.ToLower(strings.TrimSpace(fragment))
		if fragment != "" && strings.Contains(lower, fragment) {
			return true
		}
	}

	return false
}
