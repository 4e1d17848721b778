package search

import (
	"reflect"
	"testing"

	"github.com/spigell/jobscout/internal/profile"
)

func TestBuildQueriesCapsTitles(t *testing.T) {
	p := &profile.CandidateProfile{
		JobTitles: []string{"Backend Engineer", "Platform Engineer", "SRE", "DevOps Engineer", "Cloud Architect"},
	}

	queries := BuildQueries(p, profile.DefaultFilter())

	if len(queries) != 4 {
		t.Fatalf("expected 4 queries, got %d: %v", len(queries), queries)
	}

	for i, q := range queries {
		if q != p.JobTitles[i] {
			t.Fatalf("expected query %d to be %q, got %q", i, p.JobTitles[i], q)
		}
	}
}

func TestBuildQueriesSkillFallback(t *testing.T) {
	p := &profile.CandidateProfile{
		Skills: []string{"React", "Node", "SQL", "Docker"},
	}

	queries := BuildQueries(p, profile.DefaultFilter())

	expected := []string{"React jobs", "Node jobs", "SQL jobs"}
	if !reflect.DeepEqual(queries, expected) {
		t.Fatalf("expected %v, got %v", expected, queries)
	}
}

func TestBuildQueriesGenericFallback(t *testing.T) {
	queries := BuildQueries(&profile.CandidateProfile{}, profile.DefaultFilter())

	expected := []string{"software developer"}
	if !reflect.DeepEqual(queries, expected) {
		t.Fatalf("expected %v, got %v", expected, queries)
	}
}

func TestBuildQueriesSeniorityQualifier(t *testing.T) {
	tests := []struct {
		seniority string
		expect    string
	}{
		{profile.SeniorityEntry, "Engineer entry level OR junior"},
		{profile.SeniorityMid, "Engineer mid level"},
		{profile.SenioritySenior, "Engineer senior"},
		{profile.SeniorityAny, "Engineer"},
	}

	for _, tt := range tests {
		t.Run(tt.seniority, func(t *testing.T) {
			p := &profile.CandidateProfile{JobTitles: []string{"Engineer"}}
			f := profile.DefaultFilter()
			f.TargetSeniority = tt.seniority

			queries := BuildQueries(p, f)
			if len(queries) != 1 || queries[0] != tt.expect {
				t.Fatalf("expected [%q], got %v", tt.expect, queries)
			}
		})
	}
}

func TestAgeChipBuckets(t *testing.T) {
	tests := []struct {
		days   int
		expect string
	}{
		{1, "today"},
		{2, "3days"},
		{5, "week"},
		{7, "week"},
		{10, "2weeks"},
		{20, "month"},
		{30, "month"},
		{90, "month"},
	}

	for _, tt := range tests {
		if got := ageChip(tt.days); got != tt.expect {
			t.Fatalf("ageChip(%d): expected %q, got %q", tt.days, tt.expect, got)
		}
	}
}

func TestBuildParams(t *testing.T) {
	f := profile.DefaultFilter()
	f.Location = "Berlin, Germany"
	f.MaxListingAgeDays = 3

	q := BuildParams("golang developer", f)

	if q.Get("engine") != "google_jobs" {
		t.Fatalf("unexpected engine: %q", q.Get("engine"))
	}
	if q.Get("q") != "golang developer" {
		t.Fatalf("unexpected query: %q", q.Get("q"))
	}
	if q.Get("location") != "Berlin, Germany" {
		t.Fatalf("unexpected location: %q", q.Get("location"))
	}
	if q.Get("chips") != "date_posted:3days" {
		t.Fatalf("unexpected chips: %q", q.Get("chips"))
	}

	q = BuildParams("golang developer", profile.DefaultFilter())
	if q.Has("location") {
		t.Fatalf("expected no location parameter, got %q", q.Get("location"))
	}
}
