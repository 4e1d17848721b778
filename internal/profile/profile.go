// Package profile defines the candidate profile and search filter
// shapes the pipeline consumes. Profiles are produced by an external
// resume-parsing collaborator and are immutable inputs here.
package profile

// CandidateProfile describes one candidate the pipeline searches for.
type CandidateProfile struct {
	ID              string
	Summary         string
	JobTitles       []string
	Skills          []string
	YearsExperience int
	Education       []string
	Certifications  []string
	Industries      []string
}

// Remote preference values accepted by SearchFilter.
const (
	RemoteAny    = "any"
	RemoteOnly   = "remote"
	RemoteHybrid = "hybrid"
	RemoteOnsite = "onsite"
)

// Target seniority values accepted by SearchFilter.
const (
	SeniorityAny    = "any"
	SeniorityEntry  = "entry"
	SeniorityMid    = "mid"
	SenioritySenior = "senior"
)

const defaultMaxListingAgeDays = 7

// SearchFilter narrows a search for one profile. One filter set is
// associated with one profile; when the store has none, DefaultFilter
// is used instead.
type SearchFilter struct {
	Keywords          []string
	Location          string
	RemotePreference  string
	TargetSeniority   string
	MinSalary         *int
	MaxListingAgeDays int
	ExcludedCompanies []string
}

// DefaultFilter returns the documented permissive default: no
// keywords, any location, any remote preference, any seniority, no
// salary floor, listings up to a week old, no exclusions.
func DefaultFilter() *SearchFilter {
	return &SearchFilter{
		RemotePreference:  RemoteAny,
		TargetSeniority:   SeniorityAny,
		MaxListingAgeDays: defaultMaxListingAgeDays,
	}
}

// Normalize fills zero-valued fields with their defaults so a
// partially populated filter row behaves like DefaultFilter.
func (f *SearchFilter) Normalize() {
	if f.RemotePreference == "" {
		f.RemotePreference = RemoteAny
	}
	if f.TargetSeniority == "" {
		f.TargetSeniority = SeniorityAny
	}
	if f.MaxListingAgeDays <= 0 {
		f.MaxListingAgeDays = defaultMaxListingAgeDays
	}
}
