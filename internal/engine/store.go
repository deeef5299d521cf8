package engine

// Column names of the source CSV. They are also the header names used by
// every table the engine produces.
const (
	ColGame        = "Game"
	ColDeveloper   = "Developer"
	ColPublisher   = "Publisher"
	ColGenre       = "Genre"
	ColConsole     = "Console_name"
	ColReleaseDate = "Release date"
	ColCopiesSold  = "Copies sold"
)

// RequiredColumns lists the header names a source must carry, in canonical order.
var RequiredColumns = []string{
	ColGame,
	ColDeveloper,
	ColPublisher,
	ColGenre,
	ColConsole,
	ColReleaseDate,
	ColCopiesSold,
}

// nullID marks an empty categorical cell.
const nullID int32 = -1

// Dictionary maps categorical values to dense ids in first-seen order.
type Dictionary struct {
	values []string
	index  map[string]int32
}

func newDictionary() *Dictionary {
	return &Dictionary{index: make(map[string]int32)}
}

func (d *Dictionary) intern(s string) int32 {
	if s == "" {
		return nullID
	}
	if id, ok := d.index[s]; ok {
		return id
	}
	id := int32(len(d.values))
	d.values = append(d.values, s)
	d.index[s] = id
	return id
}

// Lookup returns the id of s.
func (d *Dictionary) Lookup(s string) (int32, bool) {
	id, ok := d.index[s]
	return id, ok
}

// Value returns the string for id; null ids yield "".
func (d *Dictionary) Value(id int32) string {
	if id < 0 || int(id) >= len(d.values) {
		return ""
	}
	return d.values[id]
}

func (d *Dictionary) Len() int { return len(d.values) }

// Record is one row of the dataset. Empty strings are nulls.
type Record struct {
	Game        string
	Developer   string
	Publisher   string
	Genre       string
	Console     string
	ReleaseDate string
	CopiesSold  float64
}

// Dataset holds the normalized sales table in struct-of-arrays form.
// It is never modified after the loader returns it.
type Dataset struct {
	source  string
	dropped int

	// Data columns
	copies       []float64
	releaseDates []string

	// Dictionary encoded ids (nullID when the cell was empty)
	gameIDs      []int32
	developerIDs []int32
	publisherIDs []int32
	genreIDs     []int32
	consoleIDs   []int32

	// Dictionaries (id -> string)
	games      *Dictionary
	developers *Dictionary
	publishers *Dictionary
	genres     *Dictionary
	consoles   *Dictionary
}

func newDataset(source string) *Dataset {
	return &Dataset{
		source:     source,
		games:      newDictionary(),
		developers: newDictionary(),
		publishers: newDictionary(),
		genres:     newDictionary(),
		consoles:   newDictionary(),
	}
}

// NewDataset builds a dataset from already normalized records.
func NewDataset(source string, records []Record) *Dataset {
	ds := newDataset(source)
	for _, r := range records {
		ds.append(r)
	}
	return ds
}

func (ds *Dataset) append(r Record) {
	ds.copies = append(ds.copies, r.CopiesSold)
	ds.releaseDates = append(ds.releaseDates, r.ReleaseDate)
	ds.gameIDs = append(ds.gameIDs, ds.games.intern(r.Game))
	ds.developerIDs = append(ds.developerIDs, ds.developers.intern(r.Developer))
	ds.publisherIDs = append(ds.publisherIDs, ds.publishers.intern(r.Publisher))
	ds.genreIDs = append(ds.genreIDs, ds.genres.intern(r.Genre))
	ds.consoleIDs = append(ds.consoleIDs, ds.consoles.intern(r.Console))
}

// Source identifies where the dataset was read from.
func (ds *Dataset) Source() string { return ds.source }

// Len is the number of retained rows.
func (ds *Dataset) Len() int { return len(ds.copies) }

// Dropped is the number of source rows discarded by sales coercion.
func (ds *Dataset) Dropped() int { return ds.dropped }

// Record materializes row i.
func (ds *Dataset) Record(i int) Record {
	return Record{
		Game:        ds.games.Value(ds.gameIDs[i]),
		Developer:   ds.developers.Value(ds.developerIDs[i]),
		Publisher:   ds.publishers.Value(ds.publisherIDs[i]),
		Genre:       ds.genres.Value(ds.genreIDs[i]),
		Console:     ds.consoles.Value(ds.consoleIDs[i]),
		ReleaseDate: ds.releaseDates[i],
		CopiesSold:  ds.copies[i],
	}
}
