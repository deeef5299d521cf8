package engine

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// bucket is one group of an aggregation over the selected rows.
type bucket[K comparable] struct {
	Key    K
	Count  int
	Sum    float64
	Values []float64 // raw sales, kept only when asked for
}

// groupRows buckets the selected rows by key, in first-seen order. Rows for
// which key reports false (null key, unparsable date) are skipped.
func groupRows[K comparable](w WorkingDataset, key func(row int32) (K, bool), keepValues bool) []*bucket[K] {
	index := make(map[K]int)
	var out []*bucket[K]
	for _, r := range w.rows {
		k, ok := key(r)
		if !ok {
			continue
		}
		i, seen := index[k]
		if !seen {
			i = len(out)
			index[k] = i
			out = append(out, &bucket[K]{Key: k})
		}
		b := out[i]
		copies := w.ds.copies[r]
		b.Count++
		b.Sum += copies
		if keepValues {
			b.Values = append(b.Values, copies)
		}
	}
	return out
}

// byID keys rows on a dictionary encoded column, skipping nulls.
func byID(ids []int32) func(int32) (int32, bool) {
	return func(r int32) (int32, bool) {
		id := ids[r]
		return id, id != nullID
	}
}

// byYear keys rows on the release year. Each distinct raw date is parsed once.
func byYear(w WorkingDataset) func(int32) (int, bool) {
	type parsed struct {
		year int
		ok   bool
	}
	memo := make(map[string]parsed)
	return func(r int32) (int, bool) {
		raw := w.ds.releaseDates[r]
		p, seen := memo[raw]
		if !seen {
			p.year, p.ok = releaseYear(raw)
			memo[raw] = p
		}
		return p.year, p.ok
	}
}

// --- SORTING ---

// sortByLabel orders id buckets by the ascending dictionary value.
func sortByLabel(bs []*bucket[int32], dict *Dictionary) {
	sort.SliceStable(bs, func(i, j int) bool {
		return dict.Value(bs[i].Key) < dict.Value(bs[j].Key)
	})
}

func sortByYear(bs []*bucket[int]) {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].Key < bs[j].Key })
}

// sortByCountDesc is stable: equal counts keep their current order.
func sortByCountDesc[K comparable](bs []*bucket[K]) {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].Count > bs[j].Count })
}

// sortBySumDesc is stable: equal sums keep their current order.
func sortBySumDesc[K comparable](bs []*bucket[K]) {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].Sum > bs[j].Sum })
}

func sortSlice[T any](xs []T, less func(i, j int) bool) {
	sort.SliceStable(xs, less)
}

func head[T any](xs []T, n int) []T {
	if n >= 0 && len(xs) > n {
		return xs[:n]
	}
	return xs
}

// --- DATES ---

// extraDateLayouts are tried when dateparse cannot infer the format.
var extraDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"1/2/2006",
	"1/2/06",
	"2006/1/2",
	"2006.01.02",
	"January 2006",
	"Jan 2006",
	"2006-01",
	"2006",
}

// sept is the one month abbreviation Go's parser does not know.
var sept = regexp.MustCompile(`(?i)\bsept\b\.?`)

// releaseYear extracts the calendar year of a release date, inferring the
// format the way a spreadsheet would.
func releaseYear(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = sept.ReplaceAllString(s, "Sep")
	if t, ok := parseAnyDate(s); ok {
		return t.Year(), true
	}
	for _, layout := range extraDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

func parseAnyDate(s string) (t time.Time, ok bool) {
	// dateparse can panic on some malformed input
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	t, err := dateparse.ParseIn(s, time.UTC)
	return t, err == nil
}
