package lookup

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/aniarc/internal/logger"
)

// DefaultScheme is the media player the launch URL targets.
const DefaultScheme = "stremio"

// Category returns "movie" or "series" for a lookup type. Anything that is
// not a movie is treated as a series.
func Category(titleType string) string {
	switch strings.ToLower(titleType) {
	case "movie":
		return "movie"
	case "tvseries", "tvminiseries", "tvepisode", "tvspecial":
		return "series"
	default:
		return "series"
	}
}

// BuildLaunchURL derives "<scheme>:///detail/<category>/<id>" from a match.
// It returns false when the id is empty or cannot be used as a path segment
// verbatim, or when the result is not a valid URL.
func BuildLaunchURL(scheme string, t Title) (string, bool) {
	if scheme == "" || t.ID == "" || url.PathEscape(t.ID) != t.ID {
		return "", false
	}
	raw := fmt.Sprintf("%s:///detail/%s/%s", scheme, Category(t.Type), t.ID)
	if _, err := url.Parse(raw); err != nil {
		return "", false
	}
	return raw, true
}

// Resolver turns a record title into a launch URL.
type Resolver struct {
	searcher Searcher
	scheme   string
	logger   logger.Logger
}

// NewResolver creates a resolver. An empty scheme uses DefaultScheme.
func NewResolver(s Searcher, scheme string, log logger.Logger) *Resolver {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return &Resolver{searcher: s, scheme: scheme, logger: log}
}

// ResolveLaunchURL searches for title and builds the launch URL of the
// first match.
func (r *Resolver) ResolveLaunchURL(ctx context.Context, title string) (string, error) {
	titles, err := r.searcher.SearchTitles(ctx, title, DefaultLimit)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return "", ErrNoResultsFound
	}

	launch, ok := BuildLaunchURL(r.scheme, titles[0])
	if !ok {
		return "", fmt.Errorf("%w: cannot build launch url for %q", ErrInvalidURL, titles[0].ID)
	}

	r.logger.Info("resolved launch url",
		logger.String("title", title),
		logger.String("match", titles[0].PrimaryTitle),
		logger.String("url", launch))
	return launch, nil
}
