package engine

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filters is the user's current filter selection.
type Filters struct {
	Search           string
	ExcludePublisher bool
	Genres           []string
}

// WorkingDataset is a read-only view over a Dataset: the rows that survived
// the filters plus the set of visible columns. Every stage returns a new
// value and leaves its input untouched.
type WorkingDataset struct {
	ds            *Dataset
	rows          []int32
	dropPublisher bool
}

// Working returns the unfiltered view of ds.
func Working(ds *Dataset) WorkingDataset {
	rows := make([]int32, ds.Len())
	for i := range rows {
		rows[i] = int32(i)
	}
	return WorkingDataset{ds: ds, rows: rows}
}

// ApplyFilters runs search, publisher column drop and genre inclusion, in
// that order.
func ApplyFilters(ds *Dataset, f Filters) WorkingDataset {
	w := Working(ds).Search(f.Search)
	if f.ExcludePublisher {
		w = w.DropPublisher()
	}
	return w.KeepGenres(f.Genres)
}

// Dataset returns the canonical dataset behind w.
func (w WorkingDataset) Dataset() *Dataset { return w.ds }

// Len is the number of selected rows.
func (w WorkingDataset) Len() int { return len(w.rows) }

// HasPublisher reports whether the publisher column is still visible.
func (w WorkingDataset) HasPublisher() bool { return !w.dropPublisher }

// Columns returns the visible column names in canonical order.
func (w WorkingDataset) Columns() []string {
	cols := make([]string, 0, len(RequiredColumns))
	for _, c := range RequiredColumns {
		if c == ColPublisher && w.dropPublisher {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// Record materializes the i-th selected row. Publisher is blank when the
// column has been dropped.
func (w WorkingDataset) Record(i int) Record {
	r := w.ds.Record(int(w.rows[i]))
	if w.dropPublisher {
		r.Publisher = ""
	}
	return r
}

// Search keeps rows whose game or developer contains term, ignoring case.
// Only the empty term keeps everything: whitespace is matched literally.
// Null fields never match.
func (w WorkingDataset) Search(term string) WorkingDataset {
	if term == "" {
		return w
	}
	fold := cases.Fold()
	needle := fold.String(term)

	// Fold each dictionary entry once instead of once per row.
	gameHit := matchDictionary(w.ds.games, needle, fold)
	devHit := matchDictionary(w.ds.developers, needle, fold)

	out := make([]int32, 0, len(w.rows))
	for _, r := range w.rows {
		if g := w.ds.gameIDs[r]; g != nullID && gameHit[g] {
			out = append(out, r)
			continue
		}
		if d := w.ds.developerIDs[r]; d != nullID && devHit[d] {
			out = append(out, r)
		}
	}
	return WorkingDataset{ds: w.ds, rows: out, dropPublisher: w.dropPublisher}
}

func matchDictionary(d *Dictionary, needle string, fold cases.Caser) []bool {
	hits := make([]bool, d.Len())
	for id, v := range d.values {
		hits[id] = strings.Contains(fold.String(v), needle)
	}
	return hits
}

// DropPublisher hides the publisher column. Rows are unchanged.
func (w WorkingDataset) DropPublisher() WorkingDataset {
	return WorkingDataset{ds: w.ds, rows: w.rows, dropPublisher: true}
}

// KeepGenres keeps rows whose genre is one of genres. An empty list is a
// no-op, not "filter to nothing".
func (w WorkingDataset) KeepGenres(genres []string) WorkingDataset {
	if len(genres) == 0 {
		return w
	}
	keep := make([]bool, w.ds.genres.Len())
	for _, g := range genres {
		if id, ok := w.ds.genres.Lookup(g); ok {
			keep[id] = true
		}
	}

	out := make([]int32, 0, len(w.rows))
	for _, r := range w.rows {
		if g := w.ds.genreIDs[r]; g != nullID && keep[g] {
			out = append(out, r)
		}
	}
	return WorkingDataset{ds: w.ds, rows: out, dropPublisher: w.dropPublisher}
}

// Genres lists the distinct genres of the selected rows in first-seen order.
func (w WorkingDataset) Genres() []string {
	return w.distinct(w.ds.genreIDs, w.ds.genres)
}

// Consoles lists the distinct consoles of the selected rows in first-seen order.
func (w WorkingDataset) Consoles() []string {
	return w.distinct(w.ds.consoleIDs, w.ds.consoles)
}

func (w WorkingDataset) distinct(ids []int32, dict *Dictionary) []string {
	seen := make([]bool, dict.Len())
	out := []string{}
	for _, r := range w.rows {
		id := ids[r]
		if id == nullID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, dict.Value(id))
	}
	return out
}
