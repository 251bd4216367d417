package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Record is one movie in the catalog. Records are immutable after load.
type Record struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	ReleaseYear int      `json:"release_year"`
	VoteAverage float64  `json:"vote_average"`
	PosterPath  string   `json:"poster_path"`
	Genres      []string `json:"genres"`
}

// Catalog is an ordered, read-only set of records with a title index.
// Row order is the order the similarity matrix is aligned to.
type Catalog struct {
	records []Record
	byTitle map[string]int
	byFold  map[string]int
}

// New builds a Catalog from records. Titles must be unique: the first
// occurrence wins and the titles of dropped rows are returned.
func New(records []Record) (*Catalog, []string) {
	c := &Catalog{
		records: make([]Record, 0, len(records)),
		byTitle: make(map[string]int, len(records)),
		byFold:  make(map[string]int, len(records)),
	}
	var dropped []string
	for _, r := range records {
		if _, ok := c.byTitle[r.Title]; ok {
			dropped = append(dropped, r.Title)
			continue
		}
		idx := len(c.records)
		r.Genres = append([]string(nil), r.Genres...)
		c.records = append(c.records, r)
		c.byTitle[r.Title] = idx
		key := FoldKey(r.Title)
		if _, ok := c.byFold[key]; !ok {
			c.byFold[key] = idx
		}
	}
	return c, dropped
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// At returns the record at row i.
func (c *Catalog) At(i int) Record {
	return c.records[i]
}

// Index returns the row of an exact title.
func (c *Catalog) Index(title string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.byTitle[title]
	return i, ok
}

// Lookup returns the record with an exact title.
func (c *Catalog) Lookup(title string) (Record, bool) {
	i, ok := c.Index(title)
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// Find matches a user-typed title ignoring case and Unicode normalization
// differences. Exact matches take precedence.
func (c *Catalog) Find(title string) (Record, bool) {
	if r, ok := c.Lookup(title); ok {
		return r, true
	}
	if c == nil {
		return Record{}, false
	}
	i, ok := c.byFold[FoldKey(title)]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// Titles returns all titles in row order.
func (c *Catalog) Titles() []string {
	out := make([]string, len(c.records))
	for i, r := range c.records {
		out[i] = r.Title
	}
	return out
}

// FoldKey normalizes a title for case-insensitive comparison.
// A Caser is stateful, so one is built per call.
func FoldKey(title string) string {
	t := norm.NFC.String(strings.TrimSpace(title))
	return cases.Fold().String(strings.Join(strings.Fields(t), " "))
}
