package db

import (
	"fmt"

	json "github.com/goccy/go-json"

	"moviematch/internal/catalog"
)

// ReplaceCatalog swaps the stored catalog for cat in one transaction. Row
// order follows cat. The stored similarity matrix is dropped because its
// rows no longer line up with the catalog.
func (d *DB) ReplaceCatalog(cat *catalog.Catalog) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, stmt := range []string{
		"DELETE FROM similarity",
		"DELETE FROM movies",
		"DELETE FROM meta WHERE key IN ('" + metaBuiltAt + "', '" + metaMethod + "', '" + metaRows + "')",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("clearing catalog: %w", err)
		}
	}

	insert, err := tx.Prepare(`
		INSERT INTO movies (row_index, id, title, overview, release_year, vote_average, poster_path, genres)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer insert.Close()

	for i := 0; i < cat.Len(); i++ {
		r := cat.At(i)
		genres := r.Genres
		if genres == nil {
			genres = []string{}
		}
		encoded, err := json.Marshal(genres)
		if err != nil {
			return fmt.Errorf("encoding genres of %q: %w", r.Title, err)
		}
		if _, err := insert.Exec(i, r.ID, r.Title, r.Overview, r.ReleaseYear, r.VoteAverage, r.PosterPath, string(encoded)); err != nil {
			return fmt.Errorf("inserting %q: %w", r.Title, err)
		}
	}

	if _, err := tx.Exec("INSERT INTO movies_fts(movies_fts) VALUES('rebuild')"); err != nil {
		return fmt.Errorf("rebuilding search index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog: %w", err)
	}
	return nil
}
