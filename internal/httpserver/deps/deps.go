package deps

import (
	"time"

	"github.com/MrSnakeDoc/aniarc/internal/feed"
	"github.com/MrSnakeDoc/aniarc/internal/logger"
	"github.com/MrSnakeDoc/aniarc/internal/userstate"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	AllowedCIDRS   []string         // IPs allowed to reach the API
	TrustProxy     bool             // true if running behind a trusted reverse proxy
	StoreDriver    string           // user state backend name, reported by readyz
	Feed           *feed.Controller // feed shared by all clients
	UserState      *userstate.Store // watchlist, favorites, ratings, progress
	RefreshTrigger chan struct{}    // Channel to trigger a manual feed refresh
}
