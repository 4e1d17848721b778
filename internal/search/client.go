// Package search builds job search queries and fetches listings from
// the SerpAPI Google Jobs engine.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/jobscout/internal/listing"
	"github.com/spigell/jobscout/internal/profile"
)

const (
	apiURL = "https://serpapi.com/search.json"

	// The service caps usable depth well below this; three pages per
	// query keeps quota spend predictable.
	maxPages = 3
)

type Client struct {
	apiKey     string
	logger     *zap.Logger
	HTTPClient *http.Client
	APIURL     string
}

func NewClient(apiKey string, logger *zap.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		logger: logger,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type searchResponse struct {
	Error       string           `json:"error"`
	JobsResults []map[string]any `json:"jobs_results"`
	Pagination  *pagination      `json:"serpapi_pagination"`
}

type pagination struct {
	NextPageToken string `json:"next_page_token"`
}

// Search fetches up to maxPages pages of listings for one query,
// following the service's pagination token. It stops early when a
// page comes back empty or without a next-page token.
func (c *Client) Search(ctx context.Context, query string, f *profile.SearchFilter) ([]*listing.Raw, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := BuildParams(query, f)
	q.Set("api_key", c.apiKey)

	var results []*listing.Raw

	for page := 0; page < maxPages; page++ {
		response, err := c.getPage(ctx, q)
		if err != nil {
			return nil, err
		}

		if response.Error != "" {
			return nil, &APIError{Message: response.Error}
		}

		c.logger.Debug("got search page",
			zap.String("query", query),
			zap.Int("page", page+1),
			zap.Int("results", len(response.JobsResults)),
		)

		if len(response.JobsResults) == 0 {
			break
		}

		raws, err := decodeJobs(response.JobsResults)
		if err != nil {
			return nil, fmt.Errorf("decode jobs_results: %w", err)
		}

		results = append(results, raws...)

		if response.Pagination == nil || response.Pagination.NextPageToken == "" {
			break
		}

		q.Set("next_page_token", response.Pagination.NextPageToken)
	}

	return results, nil
}

func (c *Client) getPage(ctx context.Context, q url.Values) (*searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var response *searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return response, nil
}

func decodeJobs(items []map[string]any) ([]*listing.Raw, error) {
	var raws []*listing.Raw

	cfg := &mapstructure.DecoderConfig{
		Result:  &raws,
		TagName: "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(items); err != nil {
		return nil, err
	}

	return raws, nil
}
