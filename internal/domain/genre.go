package domain

// Genre is a named catalog genre.
type Genre struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// Genres is the fixed genre table exposed to filters, in display order.
var Genres = []Genre{
	{Name: "Action", ID: 1},
	{Name: "Adventure", ID: 2},
	{Name: "Comedy", ID: 4},
	{Name: "Drama", ID: 8},
	{Name: "Fantasy", ID: 10},
	{Name: "Romance", ID: 22},
	{Name: "Sci-Fi", ID: 24},
	{Name: "Slice of Life", ID: 36},
	{Name: "Supernatural", ID: 37},
	{Name: "Military", ID: 38},
	{Name: "Horror", ID: 14},
	{Name: "Mystery", ID: 7},
	{Name: "Psychological", ID: 40},
	{Name: "Thriller", ID: 41},
	{Name: "Sports", ID: 30},
	{Name: "School", ID: 23},
}

var genreByName = func() map[string]int {
	m := make(map[string]int, len(Genres))
	for _, g := range Genres {
		m[g.Name] = g.ID
	}
	return m
}()

// GenreID returns the catalog id for a genre name.
func GenreID(name string) (int, bool) {
	id, ok := genreByName[name]
	return id, ok
}

// GenreIDs maps names to ids, dropping unknown names and duplicates.
// Input order is preserved.
func GenreIDs(names []string) []int {
	ids := make([]int, 0, len(names))
	seen := make(map[int]bool, len(names))
	for _, n := range names {
		id, ok := GenreID(n)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// GenreNames returns the names of the table in display order.
func GenreNames() []string {
	names := make([]string, len(Genres))
	for i, g := range Genres {
		names[i] = g.Name
	}
	return names
}
