package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/aniarc/internal/logger"
	"github.com/MrSnakeDoc/aniarc/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.imdbapi.dev"
	DefaultTimeout = 10 * time.Second
	DefaultLimit   = 5
)

// Title is one search hit of the title-lookup service.
type Title struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	PrimaryTitle  string  `json:"primaryTitle"`
	OriginalTitle string  `json:"originalTitle"`
	PrimaryImage  *Image  `json:"primaryImage,omitempty"`
	StartYear     *int    `json:"startYear,omitempty"`
	EndYear       *int    `json:"endYear,omitempty"`
	Rating        *Rating `json:"rating,omitempty"`
}

type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Rating struct {
	AggregateRating float64 `json:"aggregateRating"`
	VoteCount       int     `json:"voteCount"`
}

type searchResponse struct {
	Titles []Title `json:"titles"`
}

// Searcher finds titles by free text.
type Searcher interface {
	SearchTitles(ctx context.Context, query string, limit int) ([]Title, error)
}

// Client queries the title-lookup API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

// NewClient creates a lookup client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// SearchTitles calls /search/titles. Only a 200 response is accepted.
func (c *Client) SearchTitles(ctx context.Context, query string, limit int) (titles []Title, err error) {
	defer func() {
		metrics.LookupRequests.WithLabelValues(lookupOutcome(err)).Inc()
	}()

	if limit <= 0 {
		limit = DefaultLimit
	}

	u, err := url.Parse(c.baseURL + "/search/titles")
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, c.baseURL)
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("lookup returned non-200",
			logger.String("query", query),
			logger.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	return sr.Titles, nil
}

func lookupOutcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	return metrics.OutcomeError
}
