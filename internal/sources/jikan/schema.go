package jikan

import "github.com/goccy/go-json"

// ListResponse is the envelope of every paginated catalog endpoint.
// Records stay raw so that each one is mapped (and can fail) on its own.
type ListResponse struct {
	Data       []json.RawMessage `json:"data"`
	Pagination *Pagination       `json:"pagination"`
}

// SingleResponse is the envelope of /anime/{id}.
type SingleResponse struct {
	Data json.RawMessage `json:"data"`
}

// RecommendationsResponse is the envelope of /anime/{id}/recommendations.
type RecommendationsResponse struct {
	Data []Recommendation `json:"data"`
}

// Recommendation wraps the recommended anime as a partial record.
type Recommendation struct {
	Entry json.RawMessage `json:"entry"`
	Votes int             `json:"votes"`
}

// Pagination mirrors the catalog pagination block.
type Pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
	CurrentPage     int  `json:"current_page"`
}

// RawAnime is one catalog record as received on the wire.
// Every field is optional except mal_id.
type RawAnime struct {
	MalID      *int        `json:"mal_id"`
	URL        *string     `json:"url"`
	Images     *RawImages  `json:"images"`
	Title      *string     `json:"title"`
	Type       *string     `json:"type"`
	Source     *string     `json:"source"`
	Episodes   *int        `json:"episodes"`
	Status     *string     `json:"status"`
	Score      *float64    `json:"score"`
	ScoredBy   *int        `json:"scored_by"`
	Rank       *int        `json:"rank"`
	Popularity *int        `json:"popularity"`
	Synopsis   *string     `json:"synopsis"`
	Season     *string     `json:"season"`
	Year       *int        `json:"year"`
	Studios    []NamedItem `json:"studios"`
	Genres     []NamedItem `json:"genres"`
}

// RawImages groups the image variants per format.
type RawImages struct {
	JPG  *ImageSet `json:"jpg"`
	WebP *ImageSet `json:"webp"`
}

// ImageSet holds the URLs of one image format.
type ImageSet struct {
	ImageURL      *string `json:"image_url"`
	SmallImageURL *string `json:"small_image_url"`
	LargeImageURL *string `json:"large_image_url"`
}

// NamedItem is a genre, studio or similar catalog reference.
type NamedItem struct {
	MalID int    `json:"mal_id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// DecodeList parses a list envelope.
func DecodeList(data []byte) (ListResponse, error) {
	var resp ListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return ListResponse{}, err
	}
	return resp, nil
}

// DecodeSingle parses a single-record envelope.
func DecodeSingle(data []byte) (SingleResponse, error) {
	var resp SingleResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return SingleResponse{}, err
	}
	return resp, nil
}

// DecodeRecommendations parses a recommendations envelope.
func DecodeRecommendations(data []byte) (RecommendationsResponse, error) {
	var resp RecommendationsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return RecommendationsResponse{}, err
	}
	return resp, nil
}
