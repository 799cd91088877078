package domain

// Placeholders used when the catalog omits a field.
const (
	UnknownTitle      = "Unknown Title"
	NoSynopsis        = "No synopsis available."
	UnknownStatus     = "Unknown"
	UnknownEpisodeCnt = 0
)

// AnimeRecord is the stable internal view of a catalog entry.
//
// It is NOT tied to the catalog wire format. The jikan source maps raw
// payloads into this structure and every other package works on it.
//
// Records are uniquely identified by ID within a single catalog page.
type AnimeRecord struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the catalog id (mal_id). Always > 0.
	ID int `json:"id"`

	// ─────────────────────────────
	// Presentation
	// (placeholders applied when absent)
	// ─────────────────────────────

	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	Synopsis string `json:"synopsis"`

	// Score is the community score, nil when unrated.
	Score *float64 `json:"score,omitempty"`

	// Genres and Studios hold names only, in catalog order.
	Genres  []string `json:"genres"`
	Studios []string `json:"studios"`

	// EpisodeCount is 0 when the catalog does not know it yet.
	EpisodeCount int    `json:"episodes"`
	Status       string `json:"status"`

	// ─────────────────────────────
	// Optional metadata
	// ─────────────────────────────

	Year       *int   `json:"year,omitempty"`
	Season     string `json:"season,omitempty"`
	Type       string `json:"type,omitempty"`
	Source     string `json:"source,omitempty"`
	ScoredBy   *int   `json:"scored_by,omitempty"`
	Rank       *int   `json:"rank,omitempty"`
	Popularity *int   `json:"popularity,omitempty"`
}

// Rating returns the score or 0.0 when the record is unrated.
func (r AnimeRecord) Rating() float64 {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}

// DedupeRecords appends the records of next to existing, skipping ids that
// are already present. Arrival order is kept.
func DedupeRecords(existing, next []AnimeRecord) []AnimeRecord {
	seen := make(map[int]struct{}, len(existing)+len(next))
	out := make([]AnimeRecord, 0, len(existing)+len(next))
	for _, r := range existing {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	for _, r := range next {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
