package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dm/stockwatch/internal/model"
)

// ErrNoResults is returned by LatestResults when the service has not yet
// completed a detection cycle.
var ErrNoResults = errors.New("no results available")

// Source produces the snapshots used to seed the local view.
type Source interface {
	LatestResults(ctx context.Context) (*model.Snapshot, error)
	History(ctx context.Context) ([]*model.Snapshot, error)
}

// HealthChecker answers a single liveness request.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// MediaFetcher retrieves the current media frame. token is appended to the
// request so that no intermediate cache can answer it.
type MediaFetcher interface {
	FetchMedia(ctx context.Context, token string) (*Media, error)
}

// StatusError is returned for a non-2xx answer. The service was reachable
// but could not serve the request.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// DetectionClient is everything the synchronization core needs from the edge service.
type DetectionClient interface {
	Source
	HealthChecker
	MediaFetcher
	BaseURL() string
	EventsURL() string
}

// Media is one fetched image.
type Media struct {
	Data        []byte
	ContentType string
}

var _ DetectionClient = (*DefaultClient)(nil)

// ClientConfig holds configuration for DefaultClient.
type ClientConfig struct {
	BaseURL            string
	EventsPath         string // default "/api/events"
	MediaURL           string // default BaseURL + "/api/live-video"
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
}

// DefaultClient implements DetectionClient using the standard net/http package.
type DefaultClient struct {
	http   *http.Client
	stream *http.Client
	config ClientConfig
}

// NewDefaultClient constructs a DefaultClient from the given config.
// Returns an error if BaseURL is empty.
func NewDefaultClient(cfg ClientConfig) (*DefaultClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.EventsPath == "" {
		cfg.EventsPath = endpointEvents
	}
	if cfg.MediaURL == "" {
		cfg.MediaURL = cfg.BaseURL + endpointLiveVideo
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	return &DefaultClient{
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		// The push channel is long-lived; it is bounded by its context instead.
		stream: &http.Client{Transport: transport},
		config: cfg,
	}, nil
}

// BaseURL returns the configured base URL of the edge service.
func (c *DefaultClient) BaseURL() string {
	return c.config.BaseURL
}

// EventsURL returns the push channel endpoint.
func (c *DefaultClient) EventsURL() string {
	if strings.Contains(c.config.EventsPath, "://") {
		return c.config.EventsPath
	}
	return c.config.BaseURL + c.config.EventsPath
}

// MediaURL returns the media resource endpoint without a cache token.
func (c *DefaultClient) MediaURL() string {
	return c.config.MediaURL
}

// StreamHTTPClient returns an http.Client without an overall timeout, for
// the long-lived push channel. It shares the transport with DefaultClient.
func (c *DefaultClient) StreamHTTPClient() *http.Client {
	return c.stream
}

// doGet performs a GET request to url and returns the body bytes and the
// response Content-Type. Non-2xx statuses are errors.
func (c *DefaultClient) doGet(ctx context.Context, url, accept string, limit int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", accept)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, "", fmt.Errorf("response body exceeds %d MB limit", limit/(1024*1024))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &StatusError{Code: resp.StatusCode, Body: truncate(body, 200)}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
