package userstate

import (
	"sort"

	"github.com/MrSnakeDoc/aniarc/internal/domain"
)

// Stats summarizes the watchlist.
type Stats struct {
	Completed   int `json:"completed"`
	Watching    int `json:"watching"`
	PlanToWatch int `json:"planToWatch"`
	Total       int `json:"total"`
}

// IsInWatchlist reports whether id has a watchlist entry. Entries that only
// carry notes are not in the watchlist.
func (s *Store) IsInWatchlist(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	return ok && e.InWatchlist
}

// IsFavorite reports favorite membership.
func (s *Store) IsFavorite(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.favorites[id]
	return ok
}

// GetEntry returns the entry of id, watchlist or not.
func (s *Store) GetEntry(id int) (domain.UserAnimeEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	return e, ok
}

// GetUserRating returns the indexed rating of id.
func (s *Store) GetUserRating(id int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.ratings[id]
	return r, ok
}

// GetProgress returns the indexed progress of id (0 when unknown).
func (s *Store) GetProgress(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.progress[id]
}

// Entries returns the watchlist ordered by id.
func (s *Store) Entries() []domain.UserAnimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.watchlist()
}

// EntriesByStatus returns the watchlist entries in status, ordered by id.
// Note-only entries are skipped.
func (s *Store) EntriesByStatus(status domain.WatchStatus) []domain.UserAnimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.watchlist()
	out := make([]domain.UserAnimeEntry, 0, len(all))
	for _, e := range all {
		if e.WatchStatus == status {
			out = append(out, e)
		}
	}
	return out
}

// FavoriteIDs returns favorite ids ascending.
func (s *Store) FavoriteIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sortedFavorites()
}

// RecentlyAdded returns up to limit dated watchlist entries, newest first.
func (s *Store) RecentlyAdded(limit int) []domain.UserAnimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	dated := make([]domain.UserAnimeEntry, 0, len(s.entries))
	for _, e := range s.watchlist() {
		if e.DateAdded != nil {
			dated = append(dated, e)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].DateAdded.After(*dated[j].DateAdded)
	})
	if limit >= 0 && len(dated) > limit {
		dated = dated[:limit]
	}
	return dated
}

// CompletionStats counts watchlist entries per headline status. Note-only
// entries are not counted.
func (s *Store) CompletionStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	for _, e := range s.watchlist() {
		st.Total++
		switch e.WatchStatus {
		case domain.StatusCompleted:
			st.Completed++
		case domain.StatusWatching:
			st.Watching++
		case domain.StatusPlanToWatch:
			st.PlanToWatch++
		}
	}
	return st
}

// watchlist returns entries flagged in the watchlist, by id. Caller holds mu.
func (s *Store) watchlist() []domain.UserAnimeEntry {
	all := s.sortedEntries()
	out := all[:0]
	for _, e := range all {
		if e.InWatchlist {
			out = append(out, e)
		}
	}
	return out
}
