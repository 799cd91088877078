package userstate

import (
	"context"

	"github.com/MrSnakeDoc/aniarc/internal/domain"
)

// AddToWatchlist inserts or replaces the entry of record. A zero status
// means planToWatch. Existing notes, rating and progress of a replaced
// entry are dropped; the rating and progress indexes are untouched.
func (s *Store) AddToWatchlist(ctx context.Context, record domain.AnimeRecord, status domain.WatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := s.now()
	_, fav := s.favorites[record.ID]
	s.entries[record.ID] = domain.UserAnimeEntry{
		ID:          record.ID,
		InWatchlist: true,
		WatchStatus: status.OrDefault(),
		DateAdded:   &added,
		IsFavorite:  fav,
	}
	return s.persist(ctx, "add_watchlist")
}

// RemoveFromWatchlist deletes the entry. Favorites, ratings and progress
// are kept.
func (s *Store) RemoveFromWatchlist(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return s.persist(ctx, "remove_watchlist")
}

// UpdateWatchStatus changes the status of an existing entry. Unknown ids
// are ignored.
func (s *Store) UpdateWatchStatus(ctx context.Context, id int, status domain.WatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	e.WatchStatus = status.OrDefault()
	s.entries[id] = e
	return s.persist(ctx, "update_status")
}

// UpdateWatchProgress records the number of episodes watched and mirrors
// it into the entry when there is one. Negative values are ignored.
func (s *Store) UpdateWatchProgress(ctx context.Context, id, progress int) error {
	if progress < 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.progress[id] = progress
	if e, ok := s.entries[id]; ok {
		e.WatchProgress = progress
		s.entries[id] = e
	}
	return s.persist(ctx, "update_progress")
}

// SetUserRating records a 1..10 rating and mirrors it into the entry when
// there is one. Out of range values are ignored.
func (s *Store) SetUserRating(ctx context.Context, id, rating int) error {
	if !domain.ValidRating(rating) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ratings[id] = rating
	if e, ok := s.entries[id]; ok {
		r := rating
		e.UserRating = &r
		s.entries[id] = e
	}
	return s.persist(ctx, "set_rating")
}

// RemoveUserRating clears the rating in the index and in the entry.
func (s *Store) RemoveUserRating(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.ratings, id)
	if e, ok := s.entries[id]; ok {
		e.UserRating = nil
		s.entries[id] = e
	}
	return s.persist(ctx, "remove_rating")
}

// UpdateNotes sets the notes of id, creating a bare entry (not in the
// watchlist) when none exists.
func (s *Store) UpdateNotes(ctx context.Context, id int, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		_, fav := s.favorites[id]
		e = domain.UserAnimeEntry{
			ID:          id,
			WatchStatus: domain.StatusPlanToWatch,
			IsFavorite:  fav,
		}
	}
	e.Notes = notes
	s.entries[id] = e
	return s.persist(ctx, "update_notes")
}

// ToggleFavorite flips favorite membership, mirrors it into an existing
// entry and returns the new membership.
func (s *Store) ToggleFavorite(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, fav := s.favorites[id]
	fav = !fav
	if fav {
		s.favorites[id] = struct{}{}
	} else {
		delete(s.favorites, id)
	}
	if e, ok := s.entries[id]; ok {
		e.IsFavorite = fav
		s.entries[id] = e
	}
	return fav, s.persist(ctx, "toggle_favorite")
}
