package userstate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/aniarc/internal/domain"
	"github.com/MrSnakeDoc/aniarc/internal/logger"
	"github.com/MrSnakeDoc/aniarc/internal/metrics"
	"github.com/MrSnakeDoc/aniarc/internal/store"
)

// Keys under which the four indexes are persisted.
const (
	KeyWatchlist = "user_watchlist"
	KeyFavorites = "user_favorites"
	KeyRatings   = "user_ratings"
	KeyProgress  = "user_progress"
)

// Keys lists every persisted key.
var Keys = []string{KeyWatchlist, KeyFavorites, KeyRatings, KeyProgress}

// Store is the in-process owner of the user's watchlist, favorites, ratings
// and progress. It is constructed explicitly and passed by reference.
//
// All mutations are serialized by mu and re-persist the four indexes before
// returning, so two mutations never interleave their writes.
type Store struct {
	mu      sync.Mutex
	backend store.Backend
	logger  logger.Logger
	now     func() time.Time

	entries   map[int]domain.UserAnimeEntry // id -> entry
	favorites map[int]struct{}              // favorite ids
	ratings   map[int]int                   // id -> 1..10
	progress  map[int]int                   // id -> episodes watched
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the persisted state from backend. Missing or corrupt keys load
// as empty; Open only fails when ctx is done.
func Open(ctx context.Context, backend store.Backend, log logger.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		backend:   backend,
		logger:    log,
		now:       time.Now,
		entries:   make(map[int]domain.UserAnimeEntry),
		favorites: make(map[int]struct{}),
		ratings:   make(map[int]int),
		progress:  make(map[int]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("user state loaded",
		logger.Int("watchlist", len(s.entries)),
		logger.Int("favorites", len(s.favorites)),
		logger.Int("ratings", len(s.ratings)),
		logger.Int("progress", len(s.progress)))
	return s, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Close()
}

// Ping checks the backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// ─────────────────────────────────────────────────────────────────
// Persistence
// ─────────────────────────────────────────────────────────────────

func (s *Store) load(ctx context.Context) error {
	var entries []domain.UserAnimeEntry
	if s.read(ctx, KeyWatchlist, &entries) {
		for _, e := range entries {
			if e.ID > 0 {
				e.WatchStatus = e.WatchStatus.OrDefault()
				s.entries[e.ID] = e
			}
		}
	}

	var favorites []int
	if s.read(ctx, KeyFavorites, &favorites) {
		for _, id := range favorites {
			s.favorites[id] = struct{}{}
		}
	}

	var ratings map[string]int
	if s.read(ctx, KeyRatings, &ratings) {
		s.ratings = decodeIntMap(ratings)
	}

	var progress map[string]int
	if s.read(ctx, KeyProgress, &progress) {
		s.progress = decodeIntMap(progress)
	}

	return ctx.Err()
}

// read decodes one key into dst. It reports false when the key is absent,
// unreadable or corrupt; none of those is fatal.
func (s *Store) read(ctx context.Context, key string, dst interface{}) bool {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false
	}
	if err != nil {
		s.logger.Warn("failed to read user state key, starting empty",
			logger.String("key", key),
			logger.Error(err))
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Debug("corrupt user state key, starting empty",
			logger.String("key", key),
			logger.Error(err))
		return false
	}
	return true
}

// persist writes the full state. Caller holds mu.
func (s *Store) persist(ctx context.Context, op string) error {
	metrics.UserStateMutations.WithLabelValues(op).Inc()

	values, err := s.encode()
	if err != nil {
		metrics.UserStatePersistErrors.Inc()
		return fmt.Errorf("failed to encode user state: %w", err)
	}

	if bw, ok := s.backend.(store.BatchWriter); ok {
		err = bw.SetMany(ctx, values)
	} else {
		for _, key := range Keys {
			if err = s.backend.Set(ctx, key, values[key]); err != nil {
				break
			}
		}
	}
	if err != nil {
		metrics.UserStatePersistErrors.Inc()
		s.logger.Error("failed to persist user state",
			logger.String("op", op),
			logger.Error(err))
		return fmt.Errorf("failed to persist user state: %w", err)
	}
	return nil
}

func (s *Store) encode() (map[string][]byte, error) {
	watchlist, err := json.Marshal(s.sortedEntries())
	if err != nil {
		return nil, err
	}
	favorites, err := json.Marshal(s.sortedFavorites())
	if err != nil {
		return nil, err
	}
	ratings, err := json.Marshal(encodeIntMap(s.ratings))
	if err != nil {
		return nil, err
	}
	progress, err := json.Marshal(encodeIntMap(s.progress))
	if err != nil {
		return nil, err
	}
	return map[string][]byte{
		KeyWatchlist: watchlist,
		KeyFavorites: favorites,
		KeyRatings:   ratings,
		KeyProgress:  progress,
	}, nil
}

// sortedEntries returns every entry ordered by id. Caller holds mu.
func (s *Store) sortedEntries() []domain.UserAnimeEntry {
	out := make([]domain.UserAnimeEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// sortedFavorites returns favorite ids ascending. Caller holds mu.
func (s *Store) sortedFavorites() []int {
	out := make([]int, 0, len(s.favorites))
	for id := range s.favorites {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func encodeIntMap(m map[int]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[strconv.Itoa(k)] = v
	}
	return out
}

func decodeIntMap(m map[string]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[id] = v
	}
	return out
}
