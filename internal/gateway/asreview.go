// Package gateway provides a gateway to the ASReview LAB API,
// abstracting away the underlying HTTP client.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/asreview-stats/internal/domain"
)

// dashboardStatsPath is the endpoint serving the dashboard counters.
const dashboardStatsPath = "api/projects/stats"

// ErrUnexpectedStatus is returned when the server answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Fetcher defines the behavior of a gateway for fetching dashboard statistics.
type Fetcher interface {
	FetchDashboardStats(ctx context.Context) (*domain.StatsPayload, error)
}

// Options configures an ASReviewGateway.
type Options struct {
	BaseURL string
	// Token, when set, is sent as a bearer token.
	Token   string
	Timeout time.Duration
}

// ASReviewGateway is the concrete implementation of the Fetcher interface.
type ASReviewGateway struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *logrus.Logger
}

// statsResponse is the envelope the server wraps results in.
type statsResponse struct {
	Result *domain.StatsPayload `json:"result"`
}

// NewASReviewGateway is a constructor that creates a new instance of ASReviewGateway.
func NewASReviewGateway(opts Options, logger *logrus.Logger) (*ASReviewGateway, error) {
	baseURL, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient.Transport = &oauth2.Transport{
			Base:   http.DefaultTransport,
			Source: ts,
		}
	}
	return newGateway(httpClient, baseURL, logger), nil
}

func newGateway(httpClient *http.Client, baseURL *url.URL, logger *logrus.Logger) *ASReviewGateway {
	return &ASReviewGateway{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("server URL is empty")
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", raw)
	}
	return u, nil
}

// FetchDashboardStats performs a single request for the dashboard counters.
func (g *ASReviewGateway) FetchDashboardStats(ctx context.Context) (*domain.StatsPayload, error) {
	endpoint := g.baseURL.ResolveReference(&url.URL{Path: dashboardStatsPath})
	log := g.logger.WithField("url", endpoint.String())
	log.Debug("Fetching dashboard stats...")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard stats request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request dashboard stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("failed to fetch dashboard stats: %w: %d %s",
			ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard stats: %w", err)
	}
	payload := envelope.Result
	if payload == nil {
		// The server had no result for any counter.
		payload = &domain.StatsPayload{}
	}
	log.WithField("status", resp.StatusCode).Debug("Completed fetching dashboard stats.")
	return payload, nil
}
