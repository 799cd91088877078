package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/aniarc/internal/catalog"
	"github.com/MrSnakeDoc/aniarc/internal/domain"
)

var (
	// ErrSuperseded is returned by a load whose result was discarded because
	// a newer request replaced it or its context ended.
	ErrSuperseded = errors.New("feed request superseded")
	// ErrInvalidSeason is returned by SetSeason for a year or season name
	// the catalog cannot serve.
	ErrInvalidSeason = errors.New("invalid season")
	// ErrLoadMoreUnavailable is returned when LoadMore is called while a
	// load is running or the feed has no further page.
	ErrLoadMoreUnavailable = errors.New("no further page can be loaded now")
)

// Mode is the browse query of the feed.
type Mode string

const (
	ModeSeasonal Mode = "seasonal"
	ModeTop      Mode = "top"
	ModeUpcoming Mode = "upcoming"
)

// Modes lists the browse modes, default first.
var Modes = []Mode{ModeSeasonal, ModeTop, ModeUpcoming}

// ParseMode maps a mode name (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown feed mode: %q", s)
}

// Source tells what drives the accumulated records.
type Source string

const (
	SourceMode   Source = "mode"
	SourceSearch Source = "search"
	SourceGenres Source = "genres"
	SourceSeason Source = "season"
)

// Phase is the load state of the feed.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
)

// State is a point-in-time copy of the feed, without the records.
type State struct {
	Phase   Phase    `json:"phase"`
	Mode    Mode     `json:"mode"`
	Source  Source   `json:"source"`
	Query   string   `json:"query,omitempty"`
	Genres  []string `json:"genres,omitempty"`
	Year    int      `json:"year,omitempty"`
	Season  string   `json:"season,omitempty"`
	Page    int      `json:"page"`
	Loading bool     `json:"loading"`
	HasMore bool     `json:"hasMore"`
	Error   string   `json:"error,omitempty"`
	Count   int      `json:"count"`

	// SearchText is the raw search box text, which may differ from Query
	// while a debounced search is pending.
	SearchText string `json:"searchText,omitempty"`
}

// Item is a record decorated with the user's flags at read time.
type Item struct {
	domain.AnimeRecord
	InWatchlist   bool               `json:"isInWatchlist"`
	IsFavorite    bool               `json:"isFavorite"`
	WatchStatus   domain.WatchStatus `json:"watchStatus,omitempty"`
	UserRating    *int               `json:"userRating,omitempty"`
	WatchProgress int                `json:"watchProgress"`
}

// Catalog is the subset of the catalog client the feed drives.
type Catalog interface {
	FetchTop(ctx context.Context, page int) (catalog.Page, error)
	FetchCurrentSeason(ctx context.Context, page int) (catalog.Page, error)
	FetchUpcoming(ctx context.Context, page int) (catalog.Page, error)
	FetchSeason(ctx context.Context, year int, season string, page int) (catalog.Page, error)
	SearchByText(ctx context.Context, query string, page int) (catalog.Page, error)
	FetchByGenreIDs(ctx context.Context, ids []int, page int) (catalog.Page, error)
	FetchByID(ctx context.Context, id int) (domain.AnimeRecord, error)
	FetchRecommendations(ctx context.Context, id int) (catalog.Page, error)
}

// LaunchResolver turns a title into a player launch URL.
type LaunchResolver interface {
	ResolveLaunchURL(ctx context.Context, title string) (string, error)
}

// UserState is the read side of the user state store merged into items.
type UserState interface {
	GetEntry(id int) (domain.UserAnimeEntry, bool)
	IsFavorite(id int) bool
	GetUserRating(id int) (int, bool)
	GetProgress(id int) int
	Entries() []domain.UserAnimeEntry
	EntriesByStatus(status domain.WatchStatus) []domain.UserAnimeEntry
}
