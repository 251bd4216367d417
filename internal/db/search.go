package db

import (
	"fmt"
	"strings"
	"unicode"

	"moviematch/internal/catalog"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "is": true,
	"it": true, "and": true, "or": true, "with": true, "from": true,
	"by": true, "this": true, "that": true, "as": true, "be": true,
}

// BuildFTSQuery preprocesses a title query for FTS5.
// Splits on whitespace, trims punctuation, removes stopwords, and quotes each
// remaining term as a prefix match so the last word may be partially typed.
// Terms are joined with implicit AND.
func BuildFTSQuery(query string) string {
	var terms []string
	for _, w := range strings.Fields(query) {
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed == "" {
			continue
		}
		if stopwords[strings.ToLower(trimmed)] {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(trimmed, `"`, `""`)+`"*`)
	}
	return strings.Join(terms, " ")
}

// SearchTitles finds movies whose title matches query, best match first.
// Queries made only of stopwords, or databases without the FTS table, fall
// back to a substring match on the title.
func (d *DB) SearchTitles(query string, limit int) ([]catalog.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []catalog.Record{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	if fts := BuildFTSQuery(query); fts != "" {
		rows, err := d.conn.Query(`
			SELECT m.id, m.title, m.overview, m.release_year, m.vote_average, m.poster_path, m.genres
			FROM movies m
			JOIN movies_fts fts ON m.row_index = fts.rowid
			WHERE movies_fts MATCH ?1
			ORDER BY rank
			LIMIT ?2
		`, "title : ("+fts+")", limit)
		if err == nil {
			return scanMovies(rows)
		}
		if !strings.Contains(err.Error(), "no such table") {
			return nil, fmt.Errorf("searching titles: %w", err)
		}
	}

	rows, err := d.conn.Query(`
		SELECT `+movieColumns+` FROM movies
		WHERE title LIKE ?1 ESCAPE '\'
		ORDER BY row_index
		LIMIT ?2
	`, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching titles: %w", err)
	}
	return scanMovies(rows)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
