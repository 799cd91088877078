package domain

import (
	"fmt"
	"time"
)

// WatchStatus is the user's progress bucket for a title.
type WatchStatus string

const (
	StatusWatching    WatchStatus = "watching"
	StatusCompleted   WatchStatus = "completed"
	StatusOnHold      WatchStatus = "onHold"
	StatusDropped     WatchStatus = "dropped"
	StatusPlanToWatch WatchStatus = "planToWatch"
)

// WatchStatuses lists every status in display order.
var WatchStatuses = []WatchStatus{
	StatusWatching,
	StatusCompleted,
	StatusOnHold,
	StatusDropped,
	StatusPlanToWatch,
}

// Rating bounds accepted by the user state store.
const (
	MinUserRating = 1
	MaxUserRating = 10
)

// ParseWatchStatus maps its text form back to a WatchStatus.
func ParseWatchStatus(s string) (WatchStatus, error) {
	for _, st := range WatchStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown watch status: %q", s)
}

// DisplayName returns the human label of the status.
func (s WatchStatus) DisplayName() string {
	switch s {
	case StatusWatching:
		return "Watching"
	case StatusCompleted:
		return "Completed"
	case StatusOnHold:
		return "On Hold"
	case StatusDropped:
		return "Dropped"
	case StatusPlanToWatch:
		return "Plan to Watch"
	default:
		return string(s)
	}
}

// OrDefault returns planToWatch for the zero value.
func (s WatchStatus) OrDefault() WatchStatus {
	if s == "" {
		return StatusPlanToWatch
	}
	return s
}

// UserAnimeEntry is the per-title user record kept in the watchlist.
type UserAnimeEntry struct {
	ID            int         `json:"id" yaml:"id"`
	InWatchlist   bool        `json:"isInWatchlist" yaml:"isInWatchlist"`
	WatchStatus   WatchStatus `json:"watchStatus" yaml:"watchStatus"`
	UserRating    *int        `json:"userRating,omitempty" yaml:"userRating,omitempty"`
	WatchProgress int         `json:"watchProgress" yaml:"watchProgress"`
	DateAdded     *time.Time  `json:"dateAdded,omitempty" yaml:"dateAdded,omitempty"`
	Notes         string      `json:"notes" yaml:"notes"`
	IsFavorite    bool        `json:"isFavorite" yaml:"isFavorite"`
}

// ValidRating reports whether r is inside the accepted rating range.
func ValidRating(r int) bool {
	return r >= MinUserRating && r <= MaxUserRating
}
