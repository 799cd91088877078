package userstate

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/aniarc/internal/domain"
	"github.com/MrSnakeDoc/aniarc/internal/metrics"
)

// Snapshot is the portable export of the user state.
type Snapshot struct {
	Watchlist  []domain.UserAnimeEntry `json:"watchlist" yaml:"watchlist"`
	Favorites  []int                   `json:"favorites" yaml:"favorites"`
	Ratings    map[int]int             `json:"ratings" yaml:"ratings"`
	Progress   map[int]int             `json:"progress" yaml:"progress"`
	ExportDate string                  `json:"exportDate" yaml:"exportDate"`
}

// ExportAll returns a copy of the whole state stamped with the current UTC
// time in RFC 3339.
func (s *Store) ExportAll() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ratings := make(map[int]int, len(s.ratings))
	for k, v := range s.ratings {
		ratings[k] = v
	}
	progress := make(map[int]int, len(s.progress))
	for k, v := range s.progress {
		progress[k] = v
	}

	return Snapshot{
		Watchlist:  s.sortedEntries(),
		Favorites:  s.sortedFavorites(),
		Ratings:    ratings,
		Progress:   progress,
		ExportDate: s.now().UTC().Format(time.RFC3339),
	}
}

// ImportAll merges snap into the current state: favorites are unioned,
// imported ratings and progress win per id. Invalid ratings and negative
// progress are dropped. Watchlist entries are NOT restored. The favorite
// flag of every entry is re-synchronized afterwards.
func (s *Store) ImportAll(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range snap.Favorites {
		s.favorites[id] = struct{}{}
	}
	for id, r := range snap.Ratings {
		if domain.ValidRating(r) {
			s.ratings[id] = r
		}
	}
	for id, p := range snap.Progress {
		if p >= 0 {
			s.progress[id] = p
		}
	}

	for id, e := range s.entries {
		_, fav := s.favorites[id]
		e.IsFavorite = fav
		s.entries[id] = e
	}

	return s.persist(ctx, "import")
}

// ClearAll empties every index and deletes the persisted keys.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[int]domain.UserAnimeEntry)
	s.favorites = make(map[int]struct{})
	s.ratings = make(map[int]int)
	s.progress = make(map[int]int)

	metrics.UserStateMutations.WithLabelValues("clear").Inc()
	for _, key := range Keys {
		if err := s.backend.Delete(ctx, key); err != nil {
			metrics.UserStatePersistErrors.Inc()
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}
