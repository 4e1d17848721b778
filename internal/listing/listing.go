// Package listing holds the raw and normalized job listing shapes and
// the dedup/filtering step between search results and scoring.
package listing

import "time"

// Raw mirrors one entry of the search service's jobs_results array.
type Raw struct {
	Title       string        `json:"title"`
	CompanyName string        `json:"company_name"`
	Location    string        `json:"location"`
	Description string        `json:"description"`
	ShareLink   string        `json:"share_link"`
	Extensions  *Extensions   `json:"detected_extensions"`
	ApplyOption []ApplyOption `json:"apply_options"`
}

// Extensions carries the structured extras the search service
// extracts from a posting.
type Extensions struct {
	PostedAt     string `json:"posted_at"`
	Salary       string `json:"salary"`
	WorkFromHome bool   `json:"work_from_home"`
}

// ApplyOption is one application link offered by a listing.
type ApplyOption struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Normalized is the canonical listing shape written downstream. URL
// is the dedup key; the empty string means the listing has no usable
// link and must be dropped before scoring.
type Normalized struct {
	ProfileID   string
	Title       string
	Company     string
	Location    string
	Description string
	URL         string
	Source      string
	// PostedAt stays nil: the source only reports relative age
	// strings ("3 days ago") and those are not parsed into dates.
	PostedAt   *time.Time
	Remote     bool
	SalaryText string
}

const sourceTag = "google_jobs"

// Normalize maps a raw search result into the canonical shape for the
// given profile. The dedup URL is the first apply link, falling back
// to the share link.
func Normalize(profileID string, raw *Raw) *Normalized {
	n := &Normalized{
		ProfileID:   profileID,
		Title:       raw.Title,
		Company:     raw.CompanyName,
		Location:    raw.Location,
		Description: raw.Description,
		Source:      sourceTag,
	}

	if len(raw.ApplyOption) > 0 && raw.ApplyOption[0].Link != "" {
		n.URL = raw.ApplyOption[0].Link
	} else {
		n.URL = raw.ShareLink
	}

	if raw.Extensions != nil {
		n.Remote = raw.Extensions.WorkFromHome
		n.SalaryText = raw.Extensions.Salary
	}

	return n
}
