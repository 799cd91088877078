package jikan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/aniarc/internal/domain"
)

var (
	// ErrMissingID is returned for a record without a usable mal_id.
	ErrMissingID = errors.New("record has no valid mal_id")
	// ErrEmptyRecord is returned when the payload carries no record at all.
	ErrEmptyRecord = errors.New("record payload is empty")
)

// Mapper converts raw catalog records to domain.AnimeRecord.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapRecord decodes and maps one raw record. A record without a positive
// id, or with a field of the wrong JSON type, is an error.
func (m *Mapper) MapRecord(raw json.RawMessage) (domain.AnimeRecord, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.AnimeRecord{}, ErrEmptyRecord
	}

	var r RawAnime
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.AnimeRecord{}, fmt.Errorf("failed to decode record: %w", err)
	}
	return m.Map(r)
}

// Map applies the placeholder rules to an already decoded record.
func (m *Mapper) Map(r RawAnime) (domain.AnimeRecord, error) {
	if r.MalID == nil || *r.MalID <= 0 {
		return domain.AnimeRecord{}, ErrMissingID
	}

	rec := domain.AnimeRecord{
		ID:           *r.MalID,
		Title:        orDefault(r.Title, domain.UnknownTitle),
		ImageURL:     pickImage(r.Images),
		Synopsis:     orDefault(r.Synopsis, domain.NoSynopsis),
		Score:        r.Score,
		Genres:       names(r.Genres),
		Studios:      names(r.Studios),
		EpisodeCount: domain.UnknownEpisodeCnt,
		Status:       orDefault(r.Status, domain.UnknownStatus),
		Year:         r.Year,
		Season:       deref(r.Season),
		Type:         deref(r.Type),
		Source:       deref(r.Source),
		ScoredBy:     r.ScoredBy,
		Rank:         r.Rank,
		Popularity:   r.Popularity,
	}
	if r.Episodes != nil && *r.Episodes >= 0 {
		rec.EpisodeCount = *r.Episodes
	}

	return rec, nil
}

// MapPage maps every record of a list envelope. Any failing record fails
// the whole page; the index of the offending record is kept in the error.
func (m *Mapper) MapPage(resp ListResponse) ([]domain.AnimeRecord, bool, error) {
	records := make([]domain.AnimeRecord, 0, len(resp.Data))
	for i, raw := range resp.Data {
		rec, err := m.MapRecord(raw)
		if err != nil {
			return nil, false, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}

	hasMore := resp.Pagination != nil && resp.Pagination.HasNextPage
	return records, hasMore, nil
}

// MapRecommendations maps the entry of every recommendation.
func (m *Mapper) MapRecommendations(resp RecommendationsResponse) ([]domain.AnimeRecord, error) {
	records := make([]domain.AnimeRecord, 0, len(resp.Data))
	for i, rec := range resp.Data {
		mapped, err := m.MapRecord(rec.Entry)
		if err != nil {
			return nil, fmt.Errorf("recommendation %d: %w", i, err)
		}
		records = append(records, mapped)
	}
	return records, nil
}

// pickImage prefers jpg large, then jpg default, then webp large.
func pickImage(img *RawImages) string {
	if img == nil {
		return ""
	}
	if img.JPG != nil {
		if v := deref(img.JPG.LargeImageURL); v != "" {
			return v
		}
		if v := deref(img.JPG.ImageURL); v != "" {
			return v
		}
	}
	if img.WebP != nil {
		if v := deref(img.WebP.LargeImageURL); v != "" {
			return v
		}
	}
	return ""
}

func names(items []NamedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			continue
		}
		out = append(out, it.Name)
	}
	return out
}

func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
