package search

import (
	"fmt"
	"net/url"

	"github.com/spigell/jobscout/internal/profile"
)

const (
	maxTitleQueries = 4
	maxSkillQueries = 3

	// Query used when a profile carries neither titles nor skills.
	fallbackQuery = "software developer"

	engine = "google_jobs"
)

var seniorityQualifiers = map[string]string{
	profile.SeniorityEntry:  "entry level OR junior",
	profile.SeniorityMid:    "mid level",
	profile.SenioritySenior: "senior",
}

// ageBuckets are the posting-age chips supported by the search
// service, ordered ascending. The smallest bucket covering the
// filter's max age wins.
var ageBuckets = []struct {
	days int
	chip string
}{
	{1, "today"},
	{3, "3days"},
	{7, "week"},
	{14, "2weeks"},
	{30, "month"},
}

// BuildQueries turns a profile and filter into an ordered list of
// search query strings. Preference order: job titles (up to 4), then
// top skills as "<skill> jobs" queries, then a single generic
// fallback. Filter keywords are deliberately left out of the query
// text: focused single-concept queries return better-ranked results,
// and skill matching is the scorer's job.
func BuildQueries(p *profile.CandidateProfile, f *profile.SearchFilter) []string {
	var queries []string

	switch {
	case len(p.JobTitles) > 0:
		titles := p.JobTitles
		if len(titles) > maxTitleQueries {
			titles = titles[:maxTitleQueries]
		}
		queries = append(queries, titles...)
	case len(p.Skills) > 0:
		skills := p.Skills
		if len(skills) > maxSkillQueries {
			skills = skills[:maxSkillQueries]
		}
		for _, skill := range skills {
			queries = append(queries, fmt.Sprintf("%s jobs", skill))
		}
	default:
		queries = append(queries, fallbackQuery)
	}

	if qualifier, ok := seniorityQualifiers[f.TargetSeniority]; ok {
		for i, q := range queries {
			queries[i] = fmt.Sprintf("%s %s", q, qualifier)
		}
	}

	return queries
}

// BuildParams builds the search service query parameters for one
// query string. The api key and pagination token are added by the
// client.
func BuildParams(query string, f *profile.SearchFilter) url.Values {
	q := url.Values{}
	q.Set("engine", engine)
	q.Set("q", query)

	if f.Location != "" {
		q.Set("location", f.Location)
	}

	q.Set("chips", fmt.Sprintf("date_posted:%s", ageChip(f.MaxListingAgeDays)))

	return q
}

// ageChip picks the smallest supported bucket that is >= maxAgeDays,
// falling back to the largest one.
func ageChip(maxAgeDays int) string {
	for _, bucket := range ageBuckets {
		if bucket.days >= maxAgeDays {
			return bucket.chip
		}
	}

	return ageBuckets[len(ageBuckets)-1].chip
}
