package db

import (
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"moviematch/internal/catalog"
)

const movieColumns = `id, title, overview, release_year, vote_average, poster_path, genres`

// scanMovie scans a row selected with movieColumns into a Record.
func scanMovie(scanner interface{ Scan(dest ...any) error }) (catalog.Record, error) {
	var r catalog.Record
	var genres string
	err := scanner.Scan(&r.ID, &r.Title, &r.Overview, &r.ReleaseYear, &r.VoteAverage, &r.PosterPath, &genres)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(genres), &r.Genres); err != nil {
		return r, fmt.Errorf("decoding genres of %q: %w", r.Title, err)
	}
	return r, nil
}

func scanMovies(rows *sql.Rows) ([]catalog.Record, error) {
	defer rows.Close()
	var out []catalog.Record
	for rows.Next() {
		r, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadCatalog reads every movie in row order, the order the similarity
// matrix is aligned to.
func (d *DB) LoadCatalog() (*catalog.Catalog, error) {
	rows, err := d.conn.Query(`SELECT ` + movieColumns + ` FROM movies ORDER BY row_index`)
	if err != nil {
		return nil, fmt.Errorf("querying movies: %w", err)
	}
	records, err := scanMovies(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning movies: %w", err)
	}
	cat, _ := catalog.New(records)
	return cat, nil
}

// GetMovie returns a movie by exact title, or nil if not found.
func (d *DB) GetMovie(title string) (*catalog.Record, error) {
	row := d.conn.QueryRow(`SELECT `+movieColumns+` FROM movies WHERE title = ?`, title)
	r, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CountMovies returns the number of stored movies.
func (d *DB) CountMovies() (int, error) {
	var count int
	err := d.conn.QueryRow("SELECT COUNT(*) FROM movies").Scan(&count)
	return count, err
}
