package feed

import (
	"context"

	"github.com/MrSnakeDoc/aniarc/internal/catalog"
	"github.com/MrSnakeDoc/aniarc/internal/domain"
	"github.com/MrSnakeDoc/aniarc/internal/logger"
)

// State returns a copy of the feed state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	phase := PhaseIdle
	switch {
	case c.loading:
		phase = PhaseLoading
	case c.errMsg != "":
		phase = PhaseError
	}

	return State{
		Phase:   phase,
		Mode:    c.mode,
		Source:  c.source,
		Query:   c.query,
		Genres:  append([]string(nil), c.genres...),
		Year:    c.year,
		Season:  c.season,
		Page:    c.page,
		Loading: c.loading,
		HasMore: c.hasMore,
		Error:   c.errMsg,
		Count:   len(c.records),

		SearchText: c.searchText,
	}
}

// Items returns the accumulated records in arrival order, decorated with
// the user's flags.
func (c *Controller) Items() []Item {
	return c.decorate(c.snapshot())
}

// FilteredItems narrows the accumulated records locally by text and genre
// names. No request is made.
func (c *Controller) FilteredItems(text string, genres []string) []Item {
	return c.decorate(domain.FilterRecords(c.snapshot(), text, genres))
}

// Record looks up an accumulated record by id.
func (c *Controller) Record(id int) (domain.AnimeRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.records {
		if r.ID == id {
			return r, true
		}
	}
	return domain.AnimeRecord{}, false
}

// Anime returns the decorated record of id, from the feed when present and
// from the catalog otherwise.
func (c *Controller) Anime(ctx context.Context, id int) (Item, error) {
	rec, err := c.resolveRecord(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return c.decorateOne(rec), nil
}

// Recommendations returns the decorated recommendations for id.
func (c *Controller) Recommendations(ctx context.Context, id int) ([]Item, error) {
	p, err := c.catalog.FetchRecommendations(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.decorate(p.Records), nil
}

// Play resolves the launch URL of the title of id.
func (c *Controller) Play(ctx context.Context, id int) (string, error) {
	rec, err := c.resolveRecord(ctx, id)
	if err != nil {
		return "", err
	}
	return c.resolver.ResolveLaunchURL(ctx, rec.Title)
}

// WatchlistItems hydrates the watchlist entries, optionally restricted to
// status, into decorated records. Entries whose record cannot be fetched
// are logged and skipped.
func (c *Controller) WatchlistItems(ctx context.Context, status domain.WatchStatus) ([]Item, error) {
	var entries []domain.UserAnimeEntry
	if status == "" {
		entries = c.users.Entries()
	} else {
		entries = c.users.EntriesByStatus(status)
	}

	out := make([]Item, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rec, err := c.resolveRecord(ctx, e.ID)
		if err != nil {
			c.logger.Warn("skipping watchlist entry",
				logger.Int("id", e.ID),
				logger.String("reason", catalog.Message(err)))
			continue
		}
		out = append(out, c.decorateOne(rec))
	}
	return out, nil
}

func (c *Controller) resolveRecord(ctx context.Context, id int) (domain.AnimeRecord, error) {
	if rec, ok := c.Record(id); ok {
		return rec, nil
	}
	return c.catalog.FetchByID(ctx, id)
}

func (c *Controller) snapshot() []domain.AnimeRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.AnimeRecord(nil), c.records...)
}

func (c *Controller) decorate(records []domain.AnimeRecord) []Item {
	out := make([]Item, 0, len(records))
	for _, r := range records {
		out = append(out, c.decorateOne(r))
	}
	return out
}

func (c *Controller) decorateOne(r domain.AnimeRecord) Item {
	it := Item{
		AnimeRecord:   r,
		IsFavorite:    c.users.IsFavorite(r.ID),
		WatchProgress: c.users.GetProgress(r.ID),
	}
	if e, ok := c.users.GetEntry(r.ID); ok && e.InWatchlist {
		it.InWatchlist = true
		it.WatchStatus = e.WatchStatus
	}
	if rating, ok := c.users.GetUserRating(r.ID); ok {
		it.UserRating = &rating
	}
	return it
}
