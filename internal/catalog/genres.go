package catalog

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// tmdbGenres maps TMDB movie genre ids to display names.
var tmdbGenres = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

var genreByFold = func() map[string]string {
	m := make(map[string]string, len(tmdbGenres))
	for _, name := range tmdbGenres {
		m[FoldKey(name)] = name
	}
	return m
}()

// GenreName returns the TMDB name for a genre id, or "" when unknown.
func GenreName(id int) string {
	return tmdbGenres[id]
}

// parseGenreIDs decodes the "[28, 12, 16]" form written by the ingestion
// pipeline. Unknown ids map to nothing.
func parseGenreIDs(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		if name := GenreName(id); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// parseGenreNames splits a comma-separated genre list and canonicalizes
// casing against the TMDB names.
func parseGenreNames(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if name, ok := genreByFold[FoldKey(part)]; ok {
			out = append(out, name)
			continue
		}
		out = append(out, cases.Title(language.English).String(part))
	}
	return out
}
