package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// LoadReport summarizes the cleaning applied by LoadCSV.
type LoadReport struct {
	Rows            int      `json:"rows"`
	Kept            int      `json:"kept"`
	Incomplete      int      `json:"incomplete"`
	DuplicateTitles []string `json:"duplicate_titles"`
}

type columns struct {
	id, title, overview, releaseDate, releaseYear int
	vote, poster, genres, genreIDs               int
}

func indexColumns(header []string) (columns, error) {
	cols := columns{-1, -1, -1, -1, -1, -1, -1, -1, -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "id":
			cols.id = i
		case "title":
			cols.title = i
		case "overview":
			cols.overview = i
		case "release_date":
			cols.releaseDate = i
		case "release_year":
			cols.releaseYear = i
		case "vote_average":
			cols.vote = i
		case "poster_path":
			cols.poster = i
		case "genres":
			cols.genres = i
		case "genre_ids":
			cols.genreIDs = i
		}
	}
	if cols.id < 0 || cols.title < 0 {
		return cols, errors.New("csv header must contain id and title columns")
	}
	return cols, nil
}

// LoadCSV reads the movie export produced by the ingestion pipeline and
// applies its cleaning rules: duplicate titles keep their first occurrence,
// then rows missing a required value are dropped. The release year is derived
// from release_date when no release_year column exists, and TMDB genre ids
// are mapped to names. Columns are matched by header; extras are ignored.
func LoadCSV(r io.Reader) (*Catalog, *LoadReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, nil, err
	}

	report := &LoadReport{}
	var records []Record
	claimed := make(map[string]bool)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading csv row %d: %w", report.Rows+2, err)
		}
		report.Rows++

		// A title is claimed by its first row even when that row is later
		// dropped as incomplete, so a later duplicate never takes its place.
		rec, ok := parseRow(row, cols)
		if rec.Title == "" {
			report.Incomplete++
			continue
		}
		if claimed[rec.Title] {
			report.DuplicateTitles = append(report.DuplicateTitles, rec.Title)
			continue
		}
		claimed[rec.Title] = true
		if !ok {
			report.Incomplete++
			continue
		}
		records = append(records, rec)
	}

	cat, _ := New(records)
	report.Kept = cat.Len()
	return cat, report, nil
}

func field(row []string, i int) (string, bool) {
	if i < 0 {
		return "", true
	}
	if i >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[i])
	return v, v != ""
}

func parseRow(row []string, cols columns) (Record, bool) {
	var rec Record

	title, ok := field(row, cols.title)
	if !ok {
		return rec, false
	}
	rec.Title = title

	idRaw, ok := field(row, cols.id)
	if !ok {
		return rec, false
	}
	id, err := parseInt(idRaw)
	if err != nil {
		return rec, false
	}
	rec.ID = id

	if rec.Overview, ok = field(row, cols.overview); !ok {
		return rec, false
	}
	if rec.PosterPath, ok = field(row, cols.poster); !ok {
		return rec, false
	}

	vote, ok := field(row, cols.vote)
	if !ok {
		return rec, false
	}
	if vote != "" {
		v, err := strconv.ParseFloat(vote, 64)
		if err != nil {
			return rec, false
		}
		rec.VoteAverage = v
	}

	switch {
	case cols.releaseYear >= 0:
		raw, ok := field(row, cols.releaseYear)
		if !ok {
			return rec, false
		}
		if y, err := parseInt(raw); err == nil {
			rec.ReleaseYear = int(y)
		}
	case cols.releaseDate >= 0:
		raw, ok := field(row, cols.releaseDate)
		if !ok {
			return rec, false
		}
		// Unparseable dates keep the row with an unknown year.
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			rec.ReleaseYear = t.Year()
		}
	}

	switch {
	case cols.genres >= 0:
		raw, ok := field(row, cols.genres)
		if !ok {
			return rec, false
		}
		rec.Genres = parseGenreNames(raw)
	case cols.genreIDs >= 0:
		raw, ok := field(row, cols.genreIDs)
		if !ok {
			return rec, false
		}
		rec.Genres = parseGenreIDs(raw)
	}

	return rec, true
}

// parseInt accepts "42" as well as the "42.0" pandas writes for float columns.
func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
