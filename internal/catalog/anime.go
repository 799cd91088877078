package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/aniarc/internal/domain"
	"github.com/MrSnakeDoc/aniarc/internal/sources/jikan"
)

// Page is one page of mapped records.
type Page struct {
	Records []domain.AnimeRecord
	HasMore bool
}

// Seasons accepted by FetchSeason.
var Seasons = []string{"winter", "spring", "summer", "fall"}

// FetchTop returns the top-ranked page.
func (c *Client) FetchTop(ctx context.Context, page int) (Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(normalizePage(page)))
	q.Set("limit", strconv.Itoa(c.pageLimit))
	return c.fetchList(ctx, "top", "/top/anime", q)
}

// FetchCurrentSeason returns the airing season page.
func (c *Client) FetchCurrentSeason(ctx context.Context, page int) (Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(normalizePage(page)))
	return c.fetchList(ctx, "season_now", "/seasons/now", q)
}

// FetchUpcoming returns the upcoming season page.
func (c *Client) FetchUpcoming(ctx context.Context, page int) (Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(normalizePage(page)))
	return c.fetchList(ctx, "season_upcoming", "/seasons/upcoming", q)
}

// FetchSeason returns a page of a given broadcast season (ex: 2009, "spring").
func (c *Client) FetchSeason(ctx context.Context, year int, season string, page int) (Page, error) {
	season = strings.ToLower(strings.TrimSpace(season))
	if year <= 0 || !ValidSeason(season) {
		return Page{}, fmt.Errorf("%w: season %d/%q", ErrInvalidURL, year, season)
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(normalizePage(page)))
	return c.fetchList(ctx, "season", fmt.Sprintf("/seasons/%d/%s", year, season), q)
}

// SearchByText searches the catalog ordered by popularity. A blank query
// returns an empty page without any request.
func (c *Client) SearchByText(ctx context.Context, query string, page int) (Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Page{Records: []domain.AnimeRecord{}}, nil
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("page", strconv.Itoa(normalizePage(page)))
	q.Set("limit", strconv.Itoa(c.pageLimit))
	q.Set("order_by", "popularity")
	q.Set("sort", "asc")
	return c.fetchList(ctx, "search", "/anime", q)
}

// FetchByGenreIDs returns a page filtered by genre ids. No ids means an
// empty page without any request.
func (c *Client) FetchByGenreIDs(ctx context.Context, ids []int, page int) (Page, error) {
	if len(ids) == 0 {
		return Page{Records: []domain.AnimeRecord{}}, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	q := url.Values{}
	q.Set("genres", strings.Join(parts, ","))
	q.Set("page", strconv.Itoa(normalizePage(page)))
	q.Set("order_by", "popularity")
	q.Set("sort", "asc")
	return c.fetchList(ctx, "genre", "/anime", q)
}

// FetchByID returns the full record of one anime.
func (c *Client) FetchByID(ctx context.Context, id int) (domain.AnimeRecord, error) {
	if id <= 0 {
		return domain.AnimeRecord{}, fmt.Errorf("%w: anime id %d", ErrInvalidURL, id)
	}
	body, err := c.get(ctx, "anime", fmt.Sprintf("/anime/%d", id), nil)
	if err != nil {
		return domain.AnimeRecord{}, err
	}

	resp, err := jikan.DecodeSingle(body)
	if err != nil {
		return domain.AnimeRecord{}, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	rec, err := c.mapper.MapRecord(resp.Data)
	if err != nil {
		return domain.AnimeRecord{}, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	return rec, nil
}

// FetchRecommendations returns the records recommended alongside id.
// The endpoint is not paginated, so HasMore is always false.
func (c *Client) FetchRecommendations(ctx context.Context, id int) (Page, error) {
	if id <= 0 {
		return Page{}, fmt.Errorf("%w: anime id %d", ErrInvalidURL, id)
	}
	body, err := c.get(ctx, "recommendations", fmt.Sprintf("/anime/%d/recommendations", id), nil)
	if err != nil {
		return Page{}, err
	}

	resp, err := jikan.DecodeRecommendations(body)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	records, err := c.mapper.MapRecommendations(resp)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	return Page{Records: records}, nil
}

func (c *Client) fetchList(ctx context.Context, endpoint, path string, q url.Values) (Page, error) {
	body, err := c.get(ctx, endpoint, path, q)
	if err != nil {
		return Page{}, err
	}

	resp, err := jikan.DecodeList(body)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	records, hasMore, err := c.mapper.MapPage(resp)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	return Page{Records: records, HasMore: hasMore}, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ValidSeason reports whether s names a season, ignoring case.
func ValidSeason(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range Seasons {
		if v == s {
			return true
		}
	}
	return false
}
