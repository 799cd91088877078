package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/aniarc/internal/logger"
	"github.com/MrSnakeDoc/aniarc/internal/metrics"
	"github.com/MrSnakeDoc/aniarc/internal/sources/jikan"
)

const (
	DefaultBaseURL     = "https://api.jikan.moe/v4"
	DefaultUserAgent   = "AniArc/1.0"
	DefaultMinInterval = 500 * time.Millisecond
	DefaultPageLimit   = 25
	DefaultTimeout     = 15 * time.Second
)

// Options configures a catalog Client. Zero values fall back to the defaults.
type Options struct {
	BaseURL     string        // ex: "https://api.jikan.moe/v4"
	UserAgent   string        // sent on every request
	MinInterval time.Duration // minimum spacing between two outbound requests, < 0 disables
	PageLimit   int           // page size for top and text search
	Timeout     time.Duration // per-request transport timeout
	HTTPClient  *http.Client  // optional, overrides Timeout
}

// Client talks to the remote anime catalog.
//
// Outbound requests are serialized through a token bucket of burst 1, so
// two consecutive requests are always at least MinInterval apart.
type Client struct {
	baseURL   string
	userAgent string
	pageLimit int
	http      *http.Client
	limiter   *rate.Limiter
	mapper    *jikan.Mapper
	logger    logger.Logger
}

// New creates a catalog client.
func New(opts Options, log logger.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = DefaultPageLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MinInterval == 0 {
		opts.MinInterval = DefaultMinInterval
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	return &Client{
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		pageLimit: opts.PageLimit,
		http:      httpClient,
		limiter:   rate.NewLimiter(limit, 1),
		mapper:    jikan.NewMapper(),
		logger:    log,
	}
}

// get performs one rate-limited GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) (body []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.CatalogRequests.WithLabelValues(endpoint, outcome(err)).Inc()
		metrics.CatalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	u, err := url.Parse(c.baseURL + path)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, c.baseURL+path)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("catalog request",
		logger.String("endpoint", endpoint),
		logger.String("url", u.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("catalog rate limit hit", logger.String("endpoint", endpoint))
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, &ServerError{Code: resp.StatusCode}
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &NetworkError{Err: ctx.Err()}
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return body, nil
}

// wait blocks until the limiter grants a slot or ctx ends.
func (c *Client) wait(ctx context.Context) error {
	start := time.Now()
	err := c.limiter.Wait(ctx)
	metrics.CatalogRateLimitWait.Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &NetworkError{Err: ctxErr}
	}
	// Deadline too close to ever get a slot.
	return &NetworkError{Err: err}
}
