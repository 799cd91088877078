package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/aniarc/internal/feed"
	"github.com/MrSnakeDoc/aniarc/internal/logger"
)

// FeedLoader is the part of the feed controller driven by the refresher.
type FeedLoader interface {
	Load(ctx context.Context) error
	Refresh(ctx context.Context) error
	State() feed.State
}

// FeedRefresher loads the feed on start, then refreshes it periodically and
// whenever manualTrigger fires.
type FeedRefresher struct {
	feed          FeedLoader
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewFeedRefresher creates a refresher. An interval of 0 disables the
// periodic refresh; manual triggers still work.
func NewFeedRefresher(
	f FeedLoader,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *FeedRefresher {
	return &FeedRefresher{
		feed:          f,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs the initial load and starts the refresh loop. A failed initial
// load is logged, the feed keeps its error state until the next refresh.
func (fr *FeedRefresher) Start(ctx context.Context) error {
	if err := fr.feed.Load(ctx); err != nil && !errors.Is(err, feed.ErrSuperseded) {
		fr.logger.Warn("initial feed load failed",
			logger.Error(err))
	}

	var tick <-chan time.Time
	var ticker *time.Ticker
	if fr.interval > 0 {
		ticker = time.NewTicker(fr.interval)
		tick = ticker.C
	}

	go func() {
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-tick:
				// Refresh resets to page 1, so a feed paged further is left alone
				if page := fr.feed.State().Page; page > 1 {
					fr.logger.Debug("periodic refresh skipped, feed has extra pages loaded",
						logger.Int("page", page))
					continue
				}
				fr.refresh(ctx)
			case <-fr.manualTrigger:
				fr.logger.Info("manual feed refresh triggered")
				fr.refresh(ctx)
			case <-fr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the refresh loop
func (fr *FeedRefresher) Stop() {
	close(fr.stopCh)
}

func (fr *FeedRefresher) refresh(ctx context.Context) {
	err := fr.feed.Refresh(ctx)
	switch {
	case err == nil:
		fr.logger.Debug("feed refreshed")
	case errors.Is(err, feed.ErrSuperseded):
		fr.logger.Debug("feed refresh superseded")
	default:
		fr.logger.Error("failed to refresh feed",
			logger.Error(err))
	}
}
