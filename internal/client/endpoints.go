package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dm/stockwatch/internal/model"
)

const (
	endpointLatestResults = "/api/latest-results"
	endpointHistory       = "/api/history"
	endpointHealth        = "/api/health"
	endpointEvents        = "/api/events"
	endpointLiveVideo     = "/api/live-video"

	// CacheTokenParam is the query parameter carrying the cache-defeating token.
	CacheTokenParam = "t"
)

const (
	maxJSONBytes  = 32 * 1024 * 1024
	maxMediaBytes = 16 * 1024 * 1024
)

// LatestResults fetches the current snapshot from /api/latest-results.
// Returns ErrNoResults when the service reports "no_results".
func (c *DefaultClient) LatestResults(ctx context.Context) (*model.Snapshot, error) {
	body, _, err := c.doGet(ctx, c.config.BaseURL+endpointLatestResults, "application/json", maxJSONBytes)
	if err != nil {
		return nil, fmt.Errorf("LatestResults: %w", err)
	}

	var result latestResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("LatestResults decode: %w", err)
	}
	if result.Status == statusNoResults {
		return nil, ErrNoResults
	}
	snap := result.Snapshot
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("LatestResults: %w", err)
	}
	return &snap, nil
}

// History fetches the ordered snapshot history from /api/history.
// Entries that fail validation are dropped; order is preserved.
func (c *DefaultClient) History(ctx context.Context) ([]*model.Snapshot, error) {
	body, _, err := c.doGet(ctx, c.config.BaseURL+endpointHistory, "application/json", maxJSONBytes)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}

	var raw []*model.Snapshot
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("History decode: %w", err)
	}
	out := make([]*model.Snapshot, 0, len(raw))
	for _, s := range raw {
		if s.Validate() == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

// Health calls /api/health. Any 2xx answer is healthy.
func (c *DefaultClient) Health(ctx context.Context) error {
	if _, _, err := c.doGet(ctx, c.config.BaseURL+endpointHealth, "application/json", maxJSONBytes); err != nil {
		return fmt.Errorf("Health: %w", err)
	}
	return nil
}

// FetchMedia fetches the live image with token as the cache-defeating query
// parameter. A non-image Content-Type or an empty body is an error.
func (c *DefaultClient) FetchMedia(ctx context.Context, token string) (*Media, error) {
	u, err := url.Parse(c.config.MediaURL)
	if err != nil {
		return nil, fmt.Errorf("FetchMedia: %w", err)
	}
	q := u.Query()
	q.Set(CacheTokenParam, token)
	u.RawQuery = q.Encode()

	body, contentType, err := c.doGet(ctx, u.String(), "image/*", maxMediaBytes)
	if err != nil {
		return nil, fmt.Errorf("FetchMedia: %w", err)
	}
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("FetchMedia: unexpected content type %q", contentType)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("FetchMedia: empty body")
	}
	return &Media{Data: body, ContentType: contentType}, nil
}
