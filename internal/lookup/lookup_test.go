package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/MrSnakeDoc/aniarc/internal/logger"
)

func TestBuildLaunchURL(t *testing.T) {
	tests := []struct {
		name   string
		scheme string
		title  Title
		want   string
		wantOK bool
	}{
		{name: "movie", scheme: "stremio", title: Title{ID: "tt0245429", Type: "movie"}, want: "stremio:///detail/movie/tt0245429", wantOK: true},
		{name: "movie mixed case", scheme: "stremio", title: Title{ID: "tt1", Type: "Movie"}, want: "stremio:///detail/movie/tt1", wantOK: true},
		{name: "tv series", scheme: "stremio", title: Title{ID: "tt0388629", Type: "tvSeries"}, want: "stremio:///detail/series/tt0388629", wantOK: true},
		{name: "tv mini series", scheme: "stremio", title: Title{ID: "tt2", Type: "tvMiniSeries"}, want: "stremio:///detail/series/tt2", wantOK: true},
		{name: "tv episode", scheme: "stremio", title: Title{ID: "tt3", Type: "tvEpisode"}, want: "stremio:///detail/series/tt3", wantOK: true},
		{name: "tv special", scheme: "stremio", title: Title{ID: "tt4", Type: "tvSpecial"}, want: "stremio:///detail/series/tt4", wantOK: true},
		{name: "unknown type defaults to series", scheme: "stremio", title: Title{ID: "tt5", Type: "videoGame"}, want: "stremio:///detail/series/tt5", wantOK: true},
		{name: "custom scheme", scheme: "player", title: Title{ID: "tt6", Type: "movie"}, want: "player:///detail/movie/tt6", wantOK: true},
		{name: "empty id", scheme: "stremio", title: Title{ID: "", Type: "movie"}},
		{name: "id with space", scheme: "stremio", title: Title{ID: "tt 7", Type: "movie"}},
		{name: "id with slash", scheme: "stremio", title: Title{ID: "tt/8", Type: "movie"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BuildLaunchURL(tt.scheme, tt.title)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("BuildLaunchURL() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSearchTitles(t *testing.T) {
	var gotQuery, gotLimit, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/titles" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("query")
		gotLimit = r.URL.Query().Get("limit")
		gotAccept = r.Header.Get("accept")
		_, _ = w.Write([]byte(`{"titles": [{"id": "tt0388629", "type": "tvSeries", "primaryTitle": "One Piece", "originalTitle": "One Piece", "startYear": 1999}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, logger.NewNop())
	titles, err := c.SearchTitles(context.Background(), "One Piece & co", 5)
	if err != nil {
		t.Fatalf("SearchTitles() error = %v", err)
	}
	if gotQuery != "One Piece & co" || gotLimit != "5" || gotAccept != "application/json" {
		t.Errorf("request query=%q limit=%q accept=%q", gotQuery, gotLimit, gotAccept)
	}
	if len(titles) != 1 || titles[0].ID != "tt0388629" || titles[0].StartYear == nil {
		t.Errorf("SearchTitles() = %+v", titles)
	}
}

func TestSearchTitlesErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "non 200", status: http.StatusServiceUnavailable, wantErr: ErrInvalidResponse, wantMsg: "Invalid response from IMDB API"},
		{name: "created is not ok", status: http.StatusCreated, body: `{"titles": []}`, wantErr: ErrInvalidResponse},
		{name: "bad json", status: http.StatusOK, body: `{"titles": "nope"}`, wantErr: ErrDecoding, wantMsg: "Failed to decode IMDB API response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second, logger.NewNop()).SearchTitles(context.Background(), "x", 5)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SearchTitles() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && Message(err) != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", Message(err), tt.wantMsg)
			}
		})
	}
}

type fakeSearcher struct {
	titles []Title
	err    error
	calls  atomic.Int32
}

func (f *fakeSearcher) SearchTitles(ctx context.Context, query string, limit int) ([]Title, error) {
	f.calls.Add(1)
	return f.titles, f.err
}

func TestResolveLaunchURL(t *testing.T) {
	tests := []struct {
		name    string
		search  *fakeSearcher
		want    string
		wantErr error
	}{
		{
			name:   "first match wins",
			search: &fakeSearcher{titles: []Title{{ID: "tt1", Type: "movie"}, {ID: "tt2", Type: "tvSeries"}}},
			want:   "stremio:///detail/movie/tt1",
		},
		{name: "no results", search: &fakeSearcher{}, wantErr: ErrNoResultsFound},
		{name: "unbuildable match", search: &fakeSearcher{titles: []Title{{ID: "", Type: "movie"}}}, wantErr: ErrInvalidURL},
		{name: "search failure propagates", search: &fakeSearcher{err: ErrInvalidResponse}, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.search, "", logger.NewNop())
			got, err := r.ResolveLaunchURL(context.Background(), "Spirited Away")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveLaunchURL() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ResolveLaunchURL() = %q, %v, want %q", got, err, tt.want)
			}
		})
	}

	if Message(ErrNoResultsFound) != "No matching titles found on IMDB" {
		t.Errorf("Message(ErrNoResultsFound) = %q", Message(ErrNoResultsFound))
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &fakeSearcher{err: &NetworkError{Err: errors.New("connection refused")}}
	b := NewBreakerSearcher(inner, BreakerOptions{FailureThreshold: 3, OpenTimeout: time.Hour}, logger.NewNop())

	for i := 0; i < 3; i++ {
		if _, err := b.SearchTitles(context.Background(), "x", 5); !errors.Is(err, ErrNetwork) {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	_, err := b.SearchTitles(context.Background(), "x", 5)
	if !errors.Is(err, ErrNetwork) || !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("open circuit error = %v, want ErrNetwork wrapping ErrOpenState", err)
	}
	if inner.calls.Load() != 3 {
		t.Errorf("inner searcher called %d times, want 3", inner.calls.Load())
	}
}

func TestBreakerIgnoresEmptyResults(t *testing.T) {
	inner := &fakeSearcher{err: ErrNoResultsFound}
	b := NewBreakerSearcher(inner, BreakerOptions{FailureThreshold: 1}, logger.NewNop())

	for i := 0; i < 3; i++ {
		_, _ = b.SearchTitles(context.Background(), "x", 5)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}
