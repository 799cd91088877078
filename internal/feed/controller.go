package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/aniarc/internal/catalog"
	"github.com/MrSnakeDoc/aniarc/internal/domain"
	"github.com/MrSnakeDoc/aniarc/internal/logger"
	"github.com/MrSnakeDoc/aniarc/internal/metrics"
)

const DefaultDebounce = 300 * time.Millisecond

// Options tunes a Controller.
type Options struct {
	Mode     Mode          // initial browse mode, seasonal when empty
	Debounce time.Duration // QueueSearch delay, 0 means DefaultDebounce
}

type fetchFunc func(ctx context.Context, page int) (catalog.Page, error)

// slot is one cancellation lane. A request owns the slot while its token
// is current.
type slot struct {
	token  uint64
	cancel context.CancelFunc
}

type ticket struct {
	ctx     context.Context
	cancel  context.CancelFunc
	slot    *slot
	token   uint64
	epoch   uint64
	trigger string
}

// Controller owns one feed: the accumulated records of the current mode,
// search or genre selection, and its pagination cursor.
//
// mu is never held across a catalog call. Every load takes a ticket, runs
// its fetch unlocked, then re-checks the ticket before touching state.
type Controller struct {
	catalog  Catalog
	users    UserState
	resolver LaunchResolver
	logger   logger.Logger
	debounce time.Duration

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.Mutex
	mode       Mode
	source     Source
	query      string
	searchText string
	genres     []string
	year       int
	season     string
	fetch      fetchFunc // nil means an empty feed with nothing to fetch
	page       int
	records    []domain.AnimeRecord
	loading    bool
	hasMore    bool
	errMsg     string

	epoch  uint64
	browse slot
	search slot

	debounceSeq   uint64
	debounceTimer *time.Timer
	closed        bool
}

// New creates an idle controller. Nothing is fetched until Load.
func New(cat Catalog, users UserState, resolver LaunchResolver, opts Options, log logger.Logger) *Controller {
	if opts.Mode == "" {
		opts.Mode = ModeSeasonal
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		catalog:    cat,
		users:      users,
		resolver:   resolver,
		logger:     log,
		debounce:   opts.Debounce,
		baseCtx:    ctx,
		baseCancel: cancel,
		mode:       opts.Mode,
		source:     SourceMode,
		page:       1,
	}
	c.fetch = c.modeFetcher(opts.Mode)
	return c
}

// Close cancels every in-flight request and pending debounced search.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	for _, s := range []*slot{&c.browse, &c.search} {
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
	}
	c.baseCancel()
}

// ─────────────────────────────────────────────────────────────────
// Loads
// ─────────────────────────────────────────────────────────────────

// Load fetches the first page of the current mode.
func (c *Controller) Load(ctx context.Context) error {
	return c.reload(ctx, &c.browse, "initial", func() {
		c.useMode(c.mode)
	})
}

// SetMode switches the browse mode and loads its first page.
func (c *Controller) SetMode(ctx context.Context, m Mode) error {
	return c.reload(ctx, &c.browse, "mode", func() {
		c.useMode(m)
	})
}

// Refresh reloads the first page of whatever drives the feed.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.reload(ctx, &c.browse, "refresh", func() {})
}

// SubmitSearch resets the feed to the search results of text. An empty
// text reloads the current mode instead.
func (c *Controller) SubmitSearch(ctx context.Context, text string) error {
	query := strings.TrimSpace(text)
	if query == "" {
		return c.reload(ctx, &c.browse, "search_clear", func() {
			c.searchText = ""
			c.useMode(c.mode)
		})
	}

	return c.reload(ctx, &c.search, "search", func() {
		c.clearSource()
		c.searchText = text
		c.source = SourceSearch
		c.query = query
		c.fetch = func(ctx context.Context, page int) (catalog.Page, error) {
			return c.catalog.SearchByText(ctx, query, page)
		}
	})
}

// SetSearchText records the text of the search box. Clearing it while the
// feed shows search results reloads the current mode.
func (c *Controller) SetSearchText(ctx context.Context, text string) error {
	c.mu.Lock()
	c.searchText = text
	cleared := strings.TrimSpace(text) == "" && c.source == SourceSearch
	c.mu.Unlock()

	if !cleared {
		return nil
	}
	return c.SubmitSearch(ctx, "")
}

// QueueSearch submits text after the debounce delay. Each call restarts
// the delay, so only the last queued text is submitted.
func (c *Controller) QueueSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.searchText = text
	c.debounceSeq++
	seq := c.debounceSeq
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.debounceTimer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		current := seq == c.debounceSeq && !c.closed
		c.mu.Unlock()
		if !current {
			return
		}

		err := c.SubmitSearch(c.baseCtx, text)
		if err != nil && !errors.Is(err, ErrSuperseded) {
			c.logger.Warn("debounced search failed",
				logger.String("query", text),
				logger.Error(err))
		}
	})
}

// ApplyGenres filters the feed by genre names. An empty selection reloads
// the current mode; names that map to no genre give an empty feed without
// any request.
func (c *Controller) ApplyGenres(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return c.reload(ctx, &c.browse, "genres", func() {
			c.useMode(c.mode)
		})
	}

	ids := domain.GenreIDs(names)
	return c.reload(ctx, &c.browse, "genres", func() {
		c.clearSource()
		c.source = SourceGenres
		c.genres = append([]string(nil), names...)
		if len(ids) == 0 {
			c.fetch = nil
			return
		}
		c.fetch = func(ctx context.Context, page int) (catalog.Page, error) {
			return c.catalog.FetchByGenreIDs(ctx, ids, page)
		}
	})
}

// SetSeason browses the broadcast season of year (winter, spring, summer
// or fall). An invalid season returns ErrInvalidSeason and leaves the feed
// untouched.
func (c *Controller) SetSeason(ctx context.Context, year int, season string) error {
	season = strings.ToLower(strings.TrimSpace(season))
	if year <= 0 || !catalog.ValidSeason(season) {
		return fmt.Errorf("%w: %d/%q", ErrInvalidSeason, year, season)
	}

	return c.reload(ctx, &c.browse, "season", func() {
		c.clearSource()
		c.source = SourceSeason
		c.year = year
		c.season = season
		c.fetch = func(ctx context.Context, page int) (catalog.Page, error) {
			return c.catalog.FetchSeason(ctx, year, season, page)
		}
	})
}

// LoadMore appends the next page. It is refused while loading or when the
// feed has no further page.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || !c.hasMore || c.fetch == nil {
		c.mu.Unlock()
		metrics.FeedLoads.WithLabelValues("more", metrics.OutcomeRejected).Inc()
		return ErrLoadMoreUnavailable
	}
	next := c.page + 1
	fetch := c.fetch
	t := c.begin(ctx, &c.browse, "more", false)
	c.mu.Unlock()

	p, err := fetch(t.ctx, next)
	return c.finish(t, err, func() {
		c.records = domain.DedupeRecords(c.records, p.Records)
		c.hasMore = p.HasMore
		if p.HasMore {
			c.page = next
		}
	})
}

// reload resets the feed after configure has pointed it at a new source,
// then fetches page 1 in slot s.
func (c *Controller) reload(ctx context.Context, s *slot, trigger string, configure func()) error {
	c.mu.Lock()
	configure()
	fetch := c.fetch
	t := c.begin(ctx, s, trigger, true)
	if fetch == nil {
		c.mu.Unlock()
		return c.finish(t, nil, func() {})
	}
	c.mu.Unlock()

	p, err := fetch(t.ctx, 1)
	return c.finish(t, err, func() {
		c.records = domain.DedupeRecords(nil, p.Records)
		c.hasMore = p.HasMore
	})
}

// begin cancels the in-flight request of s and hands out a fresh ticket.
// A reset also discards the feed and bumps the epoch so results of the
// other slot are dropped too. Caller holds mu.
func (c *Controller) begin(ctx context.Context, s *slot, trigger string, reset bool) ticket {
	if s.cancel != nil {
		s.cancel()
	}
	s.token++
	tctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if reset {
		c.epoch++
		c.records = nil
		c.page = 1
		c.hasMore = false
		metrics.FeedItems.Set(0)
	}
	c.loading = true
	c.errMsg = ""

	return ticket{
		ctx:     tctx,
		cancel:  cancel,
		slot:    s,
		token:   s.token,
		epoch:   c.epoch,
		trigger: trigger,
	}
}

// finish applies the outcome of t if t is still current.
func (c *Controller) finish(t ticket, err error, apply func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer t.cancel()

	if t.slot.token != t.token || c.epoch != t.epoch {
		metrics.FeedLoads.WithLabelValues(t.trigger, metrics.OutcomeSuperseded).Inc()
		return ErrSuperseded
	}
	t.slot.cancel = nil

	if t.ctx.Err() != nil {
		// Caller went away; nothing replaced this load.
		c.loading = false
		metrics.FeedLoads.WithLabelValues(t.trigger, metrics.OutcomeSuperseded).Inc()
		return ErrSuperseded
	}

	c.loading = false
	if err != nil {
		c.errMsg = catalog.Message(err)
		metrics.FeedLoads.WithLabelValues(t.trigger, metrics.OutcomeError).Inc()
		c.logger.Warn("feed load failed",
			logger.String("trigger", t.trigger),
			logger.String("source", string(c.source)),
			logger.Error(err))
		return err
	}

	apply()
	metrics.FeedLoads.WithLabelValues(t.trigger, metrics.OutcomeOK).Inc()
	metrics.FeedItems.Set(float64(len(c.records)))
	c.logger.Debug("feed loaded",
		logger.String("trigger", t.trigger),
		logger.String("source", string(c.source)),
		logger.Int("page", c.page),
		logger.Int("items", len(c.records)),
		logger.Bool("has_more", c.hasMore))
	return nil
}

// useMode points the feed at mode m. Caller holds mu.
func (c *Controller) useMode(m Mode) {
	c.clearSource()
	c.mode = m
	c.source = SourceMode
	c.fetch = c.modeFetcher(m)
}

// clearSource drops the parameters of the previous source. Caller holds mu.
func (c *Controller) clearSource() {
	c.query = ""
	c.genres = nil
	c.year = 0
	c.season = ""
}

func (c *Controller) modeFetcher(m Mode) fetchFunc {
	switch m {
	case ModeTop:
		return c.catalog.FetchTop
	case ModeUpcoming:
		return c.catalog.FetchUpcoming
	default:
		return c.catalog.FetchCurrentSeason
	}
}
