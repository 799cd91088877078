package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/aniarc/internal/catalog"
	"github.com/MrSnakeDoc/aniarc/internal/config"
	"github.com/MrSnakeDoc/aniarc/internal/domain"
	"github.com/MrSnakeDoc/aniarc/internal/feed"
	"github.com/MrSnakeDoc/aniarc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/aniarc/internal/logger"
	"github.com/MrSnakeDoc/aniarc/internal/lookup"
	"github.com/MrSnakeDoc/aniarc/internal/store/memory"
	"github.com/MrSnakeDoc/aniarc/internal/userstate"
)

// stubCatalog serves two records per page and three pages per source.
type stubCatalog struct {
	byID map[int]domain.AnimeRecord
}

func page(base, p int) catalog.Page {
	return catalog.Page{
		Records: []domain.AnimeRecord{
			{ID: base + p*10 + 1, Title: fmt.Sprintf("title %d", base+p*10+1), Genres: []string{"Action"}},
			{ID: base + p*10 + 2, Title: fmt.Sprintf("title %d", base+p*10+2), Genres: []string{"Drama"}},
		},
		HasMore: p < 3,
	}
}

func (s *stubCatalog) FetchTop(_ context.Context, p int) (catalog.Page, error) {
	return page(100, p), nil
}

func (s *stubCatalog) FetchCurrentSeason(_ context.Context, p int) (catalog.Page, error) {
	return page(200, p), nil
}

func (s *stubCatalog) FetchUpcoming(_ context.Context, p int) (catalog.Page, error) {
	return page(300, p), nil
}

func (s *stubCatalog) FetchSeason(_ context.Context, _ int, _ string, p int) (catalog.Page, error) {
	return page(700, p), nil
}

func (s *stubCatalog) SearchByText(_ context.Context, _ string, p int) (catalog.Page, error) {
	return page(400, p), nil
}

func (s *stubCatalog) FetchByGenreIDs(_ context.Context, _ []int, p int) (catalog.Page, error) {
	return page(500, p), nil
}

func (s *stubCatalog) FetchByID(_ context.Context, id int) (domain.AnimeRecord, error) {
	rec, ok := s.byID[id]
	if !ok {
		return domain.AnimeRecord{}, fmt.Errorf("anime %d: %w", id, catalog.ErrNotFound)
	}
	return rec, nil
}

func (s *stubCatalog) FetchRecommendations(_ context.Context, id int) (catalog.Page, error) {
	return page(600, 1), nil
}

type stubResolver struct{}

func (stubResolver) ResolveLaunchURL(_ context.Context, title string) (string, error) {
	if title == "nothing" {
		return "", fmt.Errorf("lookup %q: %w", title, lookup.ErrNoResultsFound)
	}
	return "stremio:///detail/series/tt0409591", nil
}

type testEnv struct {
	router  chi.Router
	feed    *feed.Controller
	users   *userstate.Store
	trigger chan struct{}
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{RequestTimeout: 5 * time.Second}
	if mutate != nil {
		mutate(cfg)
	}

	users, err := userstate.Open(context.Background(), memory.New(), logger.NewNop())
	if err != nil {
		t.Fatalf("userstate.Open: %v", err)
	}
	cat := &stubCatalog{byID: map[int]domain.AnimeRecord{
		900: {ID: 900, Title: "nothing"},
		901: {ID: 901, Title: "Naruto"},
	}}
	fc := feed.New(cat, users, stubResolver{}, feed.Options{}, logger.NewNop())
	t.Cleanup(fc.Close)
	if err := fc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	trigger := make(chan struct{}, 1)
	d := deps.Deps{
		Logger:         logger.NewNop(),
		StartTime:      time.Now(),
		Version:        "test",
		TimeNow:        time.Now,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		StoreDriver:    config.DriverMemory,
		Feed:           fc,
		UserState:      users,
		RefreshTrigger: trigger,
	}
	return &testEnv{
		router:  NewRouter(cfg, logger.NewNop(), d),
		feed:    fc,
		users:   users,
		trigger: trigger,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

type feedBody struct {
	State feed.State  `json:"state"`
	Items []feed.Item `json:"items"`
}

type errBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func itemIDs(items []feed.Item) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestFeedRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/feed", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/feed = %d", rec.Code)
	}
	var fb feedBody
	decode(t, rec, &fb)
	if fb.State.Mode != feed.ModeSeasonal || len(fb.Items) != 2 || !fb.State.HasMore {
		t.Fatalf("initial feed = %+v %v", fb.State, itemIDs(fb.Items))
	}

	rec = env.do(t, http.MethodPost, "/api/feed/more", "")
	decode(t, rec, &fb)
	if rec.Code != http.StatusOK || len(fb.Items) != 4 || fb.State.Page != 2 {
		t.Fatalf("load more = %d %+v", rec.Code, fb.State)
	}

	rec = env.do(t, http.MethodGet, "/api/feed?genres=Drama", "")
	decode(t, rec, &fb)
	for _, it := range fb.Items {
		if it.Genres[0] != "Drama" {
			t.Errorf("local genre filter kept %d %v", it.ID, it.Genres)
		}
	}
	if len(fb.Items) != 2 {
		t.Errorf("filtered items = %v, want 2", itemIDs(fb.Items))
	}

	rec = env.do(t, http.MethodPost, "/api/feed/mode/TOP", "")
	decode(t, rec, &fb)
	if rec.Code != http.StatusOK || fb.State.Mode != feed.ModeTop || itemIDs(fb.Items)[0] != 111 {
		t.Fatalf("mode top = %d %+v %v", rec.Code, fb.State, itemIDs(fb.Items))
	}

	rec = env.do(t, http.MethodPost, "/api/feed/mode/weekly", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown mode = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/feed/search?q=naruto", "")
	decode(t, rec, &fb)
	if fb.State.Source != feed.SourceSearch || fb.State.Query != "naruto" || itemIDs(fb.Items)[0] != 411 {
		t.Fatalf("search = %+v %v", fb.State, itemIDs(fb.Items))
	}

	rec = env.do(t, http.MethodPost, "/api/feed/genres?genres=Action,Comedy", "")
	decode(t, rec, &fb)
	if fb.State.Source != feed.SourceGenres || itemIDs(fb.Items)[0] != 511 {
		t.Fatalf("genres = %+v %v", fb.State, itemIDs(fb.Items))
	}

	rec = env.do(t, http.MethodPost, "/api/feed/search", "")
	decode(t, rec, &fb)
	if fb.State.Source != feed.SourceMode || fb.State.Mode != feed.ModeTop {
		t.Fatalf("empty search = %+v", fb.State)
	}

	rec = env.do(t, http.MethodPost, "/api/feed/search/queue?q=bleach", "")
	if rec.Code != http.StatusAccepted {
		t.Errorf("queue search = %d, want 202", rec.Code)
	}
}

func TestSeasonRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/feed/season/2009/Spring", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("season = %d %s", rec.Code, rec.Body.String())
	}
	var fb feedBody
	decode(t, rec, &fb)
	if fb.State.Source != feed.SourceSeason || fb.State.Year != 2009 || fb.State.Season != "spring" || itemIDs(fb.Items)[0] != 711 {
		t.Fatalf("season feed = %+v %v", fb.State, itemIDs(fb.Items))
	}

	tests := []struct {
		target   string
		wantCode string
	}{
		{"/api/feed/season/2009/monsoon", "invalid_season"},
		{"/api/feed/season/0/fall", "invalid_season"},
		{"/api/feed/season/next/fall", "bad_request"},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodPost, tt.target, "")
		var eb errBody
		decode(t, rec, &eb)
		if rec.Code != http.StatusBadRequest || eb.Error.Code != tt.wantCode {
			t.Errorf("POST %s = %d %q, want 400 %q", tt.target, rec.Code, eb.Error.Code, tt.wantCode)
		}
	}
	if st := env.feed.State(); st.Source != feed.SourceSeason || st.Season != "spring" {
		t.Errorf("rejected seasons changed the feed: %+v", st)
	}
}

func TestFeedOptions(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/feed/options", "")
	var opts struct {
		Modes    []string `json:"modes"`
		Seasons  []string `json:"seasons"`
		Genres   []string `json:"genres"`
		Statuses []struct {
			Value string `json:"value"`
			Label string `json:"label"`
		} `json:"statuses"`
	}
	decode(t, rec, &opts)
	if rec.Code != http.StatusOK || len(opts.Modes) != 3 || len(opts.Seasons) != 4 || len(opts.Genres) != 16 {
		t.Fatalf("options = %d %+v", rec.Code, opts)
	}
	if len(opts.Statuses) != 5 || opts.Statuses[2].Value != "onHold" || opts.Statuses[2].Label != "On Hold" {
		t.Errorf("statuses = %+v", opts.Statuses)
	}
}

func TestLoadMoreUnavailable(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodPost, "/api/feed/more", ""); rec.Code != http.StatusOK {
			t.Fatalf("load more %d = %d", i, rec.Code)
		}
	}

	rec := env.do(t, http.MethodPost, "/api/feed/more", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("exhausted load more = %d, want 409", rec.Code)
	}
	var eb errBody
	decode(t, rec, &eb)
	if eb.Error.Code != "load_more_unavailable" {
		t.Errorf("code = %q", eb.Error.Code)
	}
}

func TestRefreshTrigger(t *testing.T) {
	env := newTestEnv(t, nil)

	if rec := env.do(t, http.MethodPost, "/api/feed/refresh", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("first refresh = %d, want 202", rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/api/feed/refresh", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("pending refresh = %d, want 429", rec.Code)
	}
	<-env.trigger
	if rec := env.do(t, http.MethodPost, "/api/feed/refresh", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("refresh after drain = %d, want 202", rec.Code)
	}
}

func TestAnimeRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantErr  string
	}{
		{"from feed", "/api/anime/211", http.StatusOK, ""},
		{"from catalog", "/api/anime/901", http.StatusOK, ""},
		{"unknown id", "/api/anime/999", http.StatusNotFound, "not_found"},
		{"bad id", "/api/anime/abc", http.StatusBadRequest, "bad_request"},
		{"negative id", "/api/anime/-4", http.StatusBadRequest, "bad_request"},
		{"recommendations", "/api/anime/211/recommendations", http.StatusOK, ""},
		{"play", "/api/anime/211/play", http.StatusOK, ""},
		{"play without match", "/api/anime/900/play", http.StatusNotFound, "no_results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.target, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("GET %s = %d, want %d (%s)", tt.target, rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantErr != "" {
				var eb errBody
				decode(t, rec, &eb)
				if eb.Error.Code != tt.wantErr || eb.Error.Message == "" {
					t.Errorf("error = %+v, want code %q", eb.Error, tt.wantErr)
				}
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/api/anime/211/play", "")
	var play struct {
		URL string `json:"url"`
	}
	decode(t, rec, &play)
	if !strings.HasPrefix(play.URL, "stremio:///detail/") {
		t.Errorf("play url = %q", play.URL)
	}
}

func TestWatchlistRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPut, "/api/watchlist/211", `{"status":"watching"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT = %d %s", rec.Code, rec.Body.String())
	}
	var entry domain.UserAnimeEntry
	decode(t, rec, &entry)
	if !entry.InWatchlist || entry.WatchStatus != domain.StatusWatching {
		t.Fatalf("entry = %+v", entry)
	}

	if rec := env.do(t, http.MethodPut, "/api/watchlist/212", `{"status":"binging"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, http.MethodPut, "/api/watchlist/212", `{"status":`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPatch, "/api/watchlist/211", `{"progress":3,"rating":8,"notes":"rewatch"}`)
	decode(t, rec, &entry)
	if entry.WatchProgress != 3 || entry.UserRating == nil || *entry.UserRating != 8 || entry.Notes != "rewatch" {
		t.Fatalf("patched entry = %+v", entry)
	}

	rec = env.do(t, http.MethodPatch, "/api/watchlist/211", `{"rating":0}`)
	decode(t, rec, &entry)
	if entry.UserRating != nil {
		t.Errorf("rating 0 should clear, got %d", *entry.UserRating)
	}

	rec = env.do(t, http.MethodGet, "/api/watchlist?status=watching", "")
	var list struct {
		Entries []domain.UserAnimeEntry `json:"entries"`
	}
	decode(t, rec, &list)
	if len(list.Entries) != 1 || list.Entries[0].ID != 211 {
		t.Fatalf("watching = %+v", list.Entries)
	}
	if rec := env.do(t, http.MethodGet, "/api/watchlist?status=binging", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status filter = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/watchlist/items", "")
	var items struct {
		Items []feed.Item `json:"items"`
	}
	decode(t, rec, &items)
	if len(items.Items) != 1 || !items.Items[0].InWatchlist || items.Items[0].WatchProgress != 3 {
		t.Fatalf("watchlist items = %+v", items.Items)
	}

	rec = env.do(t, http.MethodPost, "/api/favorites/211/toggle", "")
	var fav struct {
		ID       int  `json:"id"`
		Favorite bool `json:"favorite"`
	}
	decode(t, rec, &fav)
	if !fav.Favorite || !env.users.IsFavorite(211) {
		t.Fatalf("toggle = %+v", fav)
	}

	rec = env.do(t, http.MethodGet, "/api/stats", "")
	var stats struct {
		Watching  int                     `json:"watching"`
		Total     int                     `json:"total"`
		Favorites int                     `json:"favorites"`
		Recent    []domain.UserAnimeEntry `json:"recent"`
	}
	decode(t, rec, &stats)
	if stats.Watching != 1 || stats.Total != 1 || stats.Favorites != 1 || len(stats.Recent) != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	if rec := env.do(t, http.MethodDelete, "/api/watchlist/211", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d", rec.Code)
	}
	if env.users.IsInWatchlist(211) || !env.users.IsFavorite(211) {
		t.Errorf("remove should keep the favorite only")
	}
}

func TestUserDataExportImportClear(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	if err := env.users.AddToWatchlist(ctx, domain.AnimeRecord{ID: 5}, domain.StatusCompleted); err != nil {
		t.Fatal(err)
	}
	if err := env.users.SetUserRating(ctx, 5, 9); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodGet, "/api/userdata/export", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), ".json") {
		t.Fatalf("export = %d %v", rec.Code, rec.Header())
	}
	var snap userstate.Snapshot
	decode(t, rec, &snap)
	if len(snap.Watchlist) != 1 || snap.Ratings[5] != 9 || snap.ExportDate == "" {
		t.Fatalf("snapshot = %+v", snap)
	}

	rec = env.do(t, http.MethodGet, "/api/userdata/export?format=yaml", "")
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("yaml content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "watchStatus: completed") {
		t.Errorf("yaml export = %s", rec.Body.String())
	}

	if rec := env.do(t, http.MethodDelete, "/api/userdata", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("clear = %d", rec.Code)
	}
	if len(env.users.Entries()) != 0 {
		t.Fatalf("clear kept entries")
	}

	rec = env.do(t, http.MethodPost, "/api/userdata/import", `{"favorites":[7],"ratings":{"5":9},"progress":{"5":12}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("import = %d %s", rec.Code, rec.Body.String())
	}
	if !env.users.IsFavorite(7) || env.users.GetProgress(5) != 12 {
		t.Errorf("import did not restore indexes")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/userdata/import", strings.NewReader("favorites: [8]\n"))
	req.Header.Set("Content-Type", "application/yaml")
	yrec := httptest.NewRecorder()
	env.router.ServeHTTP(yrec, req)
	if yrec.Code != http.StatusOK || !env.users.IsFavorite(8) {
		t.Fatalf("yaml import = %d %s", yrec.Code, yrec.Body.String())
	}
}

func TestHealthRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	decode(t, rec, &health)
	if rec.Code != http.StatusOK || health.Status != "ok" || health.Version != "test" {
		t.Fatalf("healthz = %d %+v", rec.Code, health)
	}

	rec = env.do(t, http.MethodGet, "/readyz", "")
	var ready struct {
		Ready bool   `json:"ready"`
		Store string `json:"store"`
		Feed  string `json:"feed"`
	}
	decode(t, rec, &ready)
	if rec.Code != http.StatusOK || !ready.Ready || ready.Store != "memory" || ready.Feed != string(feed.PhaseIdle) {
		t.Fatalf("readyz = %d %+v", rec.Code, ready)
	}

	rec = env.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "aniarc_http_request_duration_seconds") {
		t.Fatalf("metrics = %d", rec.Code)
	}
}

func TestAllowedCIDRS(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.AllowedCIDRS = []string{"10.0.0.0/8"}
	})

	// httptest requests come from 192.0.2.1
	if rec := env.do(t, http.MethodGet, "/api/feed", ""); rec.Code != http.StatusForbidden {
		t.Errorf("outside range = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("inside range = %d, want 200", rec.Code)
	}
}

func TestInboundRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.RateLimitRequests = 2
		c.RateLimitWindow = time.Minute
	})

	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", rec.Code)
	}
	var eb errBody
	decode(t, rec, &eb)
	if eb.Error.Code != "rate_limited" {
		t.Errorf("code = %q", eb.Error.Code)
	}
}
