package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRows(t *testing.T) {
	// Row 0: Puzzle, 100
	// Row 1: Racing, 200
	// Row 2: Puzzle, 50
	// Row 3: (null genre), 999
	ds := NewDataset("mem", []Record{
		{Game: "A", Genre: "Puzzle", CopiesSold: 100},
		{Game: "B", Genre: "Racing", CopiesSold: 200},
		{Game: "C", Genre: "Puzzle", CopiesSold: 50},
		{Game: "D", CopiesSold: 999},
	})

	bs := groupRows(Working(ds), byID(ds.genreIDs), true)
	if len(bs) != 2 {
		t.Fatalf("Expected 2 buckets (null skipped), got %d", len(bs))
	}

	// First-seen order
	if got := ds.genres.Value(bs[0].Key); got != "Puzzle" {
		t.Errorf("Expected first bucket Puzzle, got %s", got)
	}
	if bs[0].Count != 2 || bs[0].Sum != 150 {
		t.Errorf("Puzzle: expected count 2 sum 150, got %d %f", bs[0].Count, bs[0].Sum)
	}
	assert.Equal(t, []float64{100, 50}, bs[0].Values)
	assert.Equal(t, []float64{200}, bs[1].Values)

	bs = groupRows(Working(ds), byID(ds.genreIDs), false)
	assert.Nil(t, bs[0].Values)
}

func TestGroupRowsRespectsSelection(t *testing.T) {
	ds := NewDataset("mem", []Record{
		{Game: "A", Genre: "Puzzle", CopiesSold: 1},
		{Game: "B", Genre: "Racing", CopiesSold: 2},
	})
	w := Working(ds).KeepGenres([]string{"Racing"})

	bs := groupRows(w, byID(ds.genreIDs), false)
	require.Len(t, bs, 1)
	assert.Equal(t, "Racing", ds.genres.Value(bs[0].Key))
}

func TestByYear(t *testing.T) {
	ds := NewDataset("mem", []Record{
		{Game: "A", ReleaseDate: "2001-11-15", CopiesSold: 1},
		{Game: "B", ReleaseDate: "sometime", CopiesSold: 2},
		{Game: "C", ReleaseDate: "November 18, 2001", CopiesSold: 3},
		{Game: "D", ReleaseDate: "1998", CopiesSold: 4},
	})

	bs := groupRows(Working(ds), byYear(Working(ds)), false)
	require.Len(t, bs, 2)
	assert.Equal(t, 2001, bs[0].Key)
	assert.Equal(t, 4.0, bs[0].Sum)
	assert.Equal(t, 1998, bs[1].Key)

	sortByYear(bs)
	assert.Equal(t, 1998, bs[0].Key)
}

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		raw  string
		year int
		ok   bool
	}{
		{"2017-04-28", 2017, true},
		{"2017-04-28T10:00:00Z", 2017, true},
		{"2017-04-28 10:00:00", 2017, true},
		{"November 18, 2011", 2011, true},
		{"Nov 18, 2011", 2011, true},
		{"18 November 2011", 2011, true},
		{"18 Nov 2011", 2011, true},
		{"12/25/1998", 1998, true},
		{"1998/12/25", 1998, true},
		{"March 1995", 1995, true},
		{"Mar 1995", 1995, true},
		{"1995-03", 1995, true},
		{" 1989 ", 1989, true},
		{"2011-11-18T00:00:00", 2011, true},
		{"November 18 2011", 2011, true},
		{"Nov 18 2011", 2011, true},
		{"18-Nov-2011", 2011, true},
		{"Sept 5, 2011", 2011, true},
		{"Sept. 5, 2011", 2011, true},
		{"2011.11.18", 2011, true},
		{"11/18/11", 2011, true},
		{"", 0, false},
		{"TBA", 0, false},
		{"2017-13-45", 0, false},
	}
	for _, tt := range tests {
		year, ok := releaseYear(tt.raw)
		assert.Equal(t, tt.ok, ok, "releaseYear(%q) ok", tt.raw)
		assert.Equal(t, tt.year, year, "releaseYear(%q)", tt.raw)
	}
}

func TestSortHelpersAreStable(t *testing.T) {
	ds := NewDataset("mem", []Record{
		{Game: "Zelda", CopiesSold: 10},
		{Game: "Asteroids", CopiesSold: 10},
		{Game: "Metroid", CopiesSold: 30},
		{Game: "Asteroids", CopiesSold: 5},
	})
	labels := func(bs []*bucket[int32]) []string {
		out := make([]string, len(bs))
		for i, b := range bs {
			out[i] = ds.games.Value(b.Key)
		}
		return out
	}

	bs := groupRows(Working(ds), byID(ds.gameIDs), false)
	sortByCountDesc(bs)
	// Asteroids has two rows; Zelda and Metroid tie and keep first-seen order
	assert.Equal(t, []string{"Asteroids", "Zelda", "Metroid"}, labels(bs))

	bs = groupRows(Working(ds), byID(ds.gameIDs), false)
	sortByLabel(bs, ds.games)
	assert.Equal(t, []string{"Asteroids", "Metroid", "Zelda"}, labels(bs))

	bs = groupRows(Working(ds), byID(ds.gameIDs), false)
	sortBySumDesc(bs)
	// Metroid 30, Asteroids 15, Zelda 10
	assert.Equal(t, []string{"Metroid", "Asteroids", "Zelda"}, labels(bs))
}

func TestHead(t *testing.T) {
	xs := []int{1, 2, 3}
	assert.Equal(t, []int{1, 2}, head(xs, 2))
	assert.Equal(t, xs, head(xs, 5))
	assert.Empty(t, head(xs, 0))
	assert.Empty(t, head([]int(nil), 3))
}
