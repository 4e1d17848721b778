package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/jobscout/internal/profile"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("test-key", zap.NewNop())
	client.APIURL = server.URL

	return client, server
}

func TestSearchFollowsPagination(t *testing.T) {
	var calls []string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("next_page_token")
		calls = append(calls, token)

		switch token {
		case "":
			json.NewEncoder(w).Encode(map[string]any{
				"jobs_results":       []map[string]any{{"title": "Go Developer", "company_name": "Acme"}},
				"serpapi_pagination": map[string]any{"next_page_token": "page2"},
			})
		case "page2":
			json.NewEncoder(w).Encode(map[string]any{
				"jobs_results": []map[string]any{{"title": "Platform Engineer", "company_name": "Globex"}},
			})
		default:
			t.Errorf("unexpected pagination token: %q", token)
		}
	})

	results, err := client.Search(context.Background(), "golang", profile.DefaultFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].Title != "Go Developer" || results[1].Title != "Platform Engineer" {
		t.Fatalf("unexpected results order: %+v", results)
	}

	if len(calls) != 2 {
		t.Fatalf("expected 2 page fetches, got %d", len(calls))
	}
}

func TestSearchStopsAtMaxPages(t *testing.T) {
	calls := 0

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{
			"jobs_results":       []map[string]any{{"title": "Go Developer"}},
			"serpapi_pagination": map[string]any{"next_page_token": "more"},
		})
	})

	results, err := client.Search(context.Background(), "golang", profile.DefaultFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != maxPages {
		t.Fatalf("expected %d page fetches, got %d", maxPages, calls)
	}

	if len(results) != maxPages {
		t.Fatalf("expected %d results, got %d", maxPages, len(results))
	}
}

func TestSearchStopsOnEmptyPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"jobs_results": []map[string]any{}})
	})

	results, err := client.Search(context.Background(), "golang", profile.DefaultFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearchMissingAPIKey(t *testing.T) {
	client := NewClient("", zap.NewNop())

	_, err := client.Search(context.Background(), "golang", profile.DefaultFilter())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestSearchHTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "golang", profile.DefaultFilter())

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}

	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status code: %d", httpErr.StatusCode)
	}
}

func TestSearchAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "Google Jobs hasn't returned any results for this query."})
	})

	_, err := client.Search(context.Background(), "golang", profile.DefaultFilter())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}

	if apiErr.Message == "" {
		t.Fatalf("expected error message to be populated")
	}
}

func TestSearchDecodesListingShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"jobs_results": []map[string]any{{
				"title":        "Go Developer",
				"company_name": "Acme",
				"location":     "Remote",
				"description":  "Build services",
				"share_link":   "https://example.com/share/1",
				"detected_extensions": map[string]any{
					"posted_at":      "3 days ago",
					"salary":         "90k-120k",
					"work_from_home": true,
				},
				"apply_options": []map[string]any{
					{"title": "Apply on Acme", "link": "https://example.com/apply/1"},
				},
			}},
		})
	})

	results, err := client.Search(context.Background(), "golang", profile.DefaultFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	raw := results[0]
	if raw.CompanyName != "Acme" || raw.ShareLink != "https://example.com/share/1" {
		t.Fatalf("unexpected decode: %+v", raw)
	}
	if raw.Extensions == nil || !raw.Extensions.WorkFromHome || raw.Extensions.Salary != "90k-120k" {
		t.Fatalf("extensions not decoded: %+v", raw.Extensions)
	}
	if len(raw.ApplyOption) != 1 || raw.ApplyOption[0].Link != "https://example.com/apply/1" {
		t.Fatalf("apply options not decoded: %+v", raw.ApplyOption)
	}
}
