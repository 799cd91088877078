package domain

import "strings"

// FilterRecords applies the local-only feed filter.
//
// A record is kept when text is empty or matches (case-insensitive
// substring) its title, synopsis or any genre, AND when genres is empty or
// intersects the record's genres. No network is involved.
func FilterRecords(records []AnimeRecord, text string, genres []string) []AnimeRecord {
	needle := strings.ToLower(strings.TrimSpace(text))
	selected := make(map[string]bool, len(genres))
	for _, g := range genres {
		selected[g] = true
	}

	out := make([]AnimeRecord, 0, len(records))
	for _, r := range records {
		if needle != "" && !matchesText(r, needle) {
			continue
		}
		if len(selected) > 0 && !hasAnyGenre(r, selected) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesText(r AnimeRecord, needle string) bool {
	if strings.Contains(strings.ToLower(r.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(r.Synopsis), needle) {
		return true
	}
	for _, g := range r.Genres {
		if strings.Contains(strings.ToLower(g), needle) {
			return true
		}
	}
	return false
}

func hasAnyGenre(r AnimeRecord, selected map[string]bool) bool {
	for _, g := range r.Genres {
		if selected[g] {
			return true
		}
	}
	return false
}
