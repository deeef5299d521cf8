package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"dashboard/internal/models"

	"github.com/aclements/go-moremath/stats"
)

var (
	ErrUnknownView    = errors.New("unknown view")
	ErrColumnExcluded = errors.New("column excluded by filters")
	ErrInvalidTopN    = errors.New("top_n out of range")
)

// Bounds of the "top N" selector.
const (
	MinTopN = 5
	MaxTopN = 50
)

// ViewID identifies one of the dashboard's aggregation recipes.
type ViewID string

const (
	ViewTopDevelopers         ViewID = "top_developers"
	ViewTopGamesBySales       ViewID = "top_games_by_sales"
	ViewYearlySales           ViewID = "yearly_sales"
	ViewGenreSpectrum         ViewID = "genre_spectrum"
	ViewPublisherSales        ViewID = "publisher_sales"
	ViewConsoleSales          ViewID = "console_sales"
	ViewTopPublishersByGenre  ViewID = "top_publishers_by_genre"
	ViewSalesDistribution     ViewID = "sales_distribution_by_year"
	ViewPlatformPopularity    ViewID = "platform_popularity"
	ViewAvgSalesPerGenre      ViewID = "avg_sales_per_genre"
	ViewTopGamesByGenre       ViewID = "top_n_games_by_genre"
	ViewGamesReleasedOverTime ViewID = "games_released_over_time"
	ViewConsoleLibrary        ViewID = "console_library"
)

// ViewRequest selects a view and its parameters. Zero values mean defaults:
// TopN falls back to the view's own default, Genre/Console to the first one
// present in the working dataset.
type ViewRequest struct {
	View    ViewID
	TopN    int
	Genre   string
	Console string
}

type viewSpec struct {
	label    string
	params   []string
	defaultN int
}

// AllViews lists the views in selector order.
var AllViews = []ViewID{
	ViewTopDevelopers,
	ViewTopGamesBySales,
	ViewYearlySales,
	ViewGenreSpectrum,
	ViewPublisherSales,
	ViewConsoleSales,
	ViewTopPublishersByGenre,
	ViewSalesDistribution,
	ViewPlatformPopularity,
	ViewAvgSalesPerGenre,
	ViewTopGamesByGenre,
	ViewGamesReleasedOverTime,
	ViewConsoleLibrary,
}

var viewSpecs = map[ViewID]viewSpec{
	ViewTopDevelopers:         {label: "Top Developers"},
	ViewTopGamesBySales:       {label: "Top Games by Copies Sold", params: []string{"top_n"}, defaultN: 10},
	ViewYearlySales:           {label: "Yearly Sales"},
	ViewGenreSpectrum:         {label: "Genre Spectrum"},
	ViewPublisherSales:        {label: "Publisher Sales", params: []string{"top_n"}, defaultN: 20},
	ViewConsoleSales:          {label: "Console Sales"},
	ViewTopPublishersByGenre:  {label: "Top Publishers by Genre"},
	ViewSalesDistribution:     {label: "Sales Distribution by Year"},
	ViewPlatformPopularity:    {label: "Platform Popularity"},
	ViewAvgSalesPerGenre:      {label: "Average Sales per Genre"},
	ViewTopGamesByGenre:       {label: "Top N Games by Genre", params: []string{"top_n", "genre"}, defaultN: 10},
	ViewGamesReleasedOverTime: {label: "Games Released Over Time"},
	ViewConsoleLibrary:        {label: "Console Library", params: []string{"console"}},
}

// ParseView validates a view identifier.
func ParseView(s string) (ViewID, error) {
	id := ViewID(strings.TrimSpace(s))
	if _, ok := viewSpecs[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
	return id, nil
}

// Views describes every view for the selector.
func Views() []models.ViewInfo {
	out := make([]models.ViewInfo, 0, len(AllViews))
	for _, id := range AllViews {
		spec := viewSpecs[id]
		out = append(out, models.ViewInfo{ID: string(id), Label: spec.label, Params: spec.params})
	}
	return out
}

// TakesTopN reports whether view has a "top N" selector.
func TakesTopN(view ViewID) bool {
	return slices.Contains(viewSpecs[view].params, "top_n")
}

// topN is the effective N. It is only checked for views that take one.
func (req ViewRequest) topN() (int, error) {
	if !TakesTopN(req.View) {
		return 0, nil
	}
	if req.TopN == 0 {
		return viewSpecs[req.View].defaultN, nil
	}
	if req.TopN < MinTopN || req.TopN > MaxTopN {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidTopN, req.TopN, MinTopN, MaxTopN)
	}
	return req.TopN, nil
}

// Resolve computes the table and chart encoding of a view over w. The whole
// aggregation is recomputed on every call.
func Resolve(w WorkingDataset, req ViewRequest) (*models.ViewResult, error) {
	spec, ok := viewSpecs[req.View]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, req.View)
	}
	n, err := req.topN()
	if err != nil {
		return nil, err
	}

	var res *models.ViewResult
	switch req.View {
	case ViewTopDevelopers:
		res = topDevelopers(w)
	case ViewTopGamesBySales:
		res = topGamesBySales(w, n)
	case ViewYearlySales:
		res = yearlySales(w)
	case ViewGenreSpectrum:
		res = genreSpectrum(w)
	case ViewPublisherSales:
		if !w.HasPublisher() {
			return nil, fmt.Errorf("%s: %w: %s", req.View, ErrColumnExcluded, ColPublisher)
		}
		res = publisherSales(w, n)
	case ViewConsoleSales:
		res = consoleSales(w)
	case ViewTopPublishersByGenre:
		if !w.HasPublisher() {
			return nil, fmt.Errorf("%s: %w: %s", req.View, ErrColumnExcluded, ColPublisher)
		}
		res = topPublishersByGenre(w)
	case ViewSalesDistribution:
		res = salesDistributionByYear(w)
	case ViewPlatformPopularity:
		res = platformPopularity(w)
	case ViewAvgSalesPerGenre:
		res = avgSalesPerGenre(w)
	case ViewTopGamesByGenre:
		res = topGamesByGenre(w, n, req.Genre)
	case ViewGamesReleasedOverTime:
		res = gamesReleasedOverTime(w)
	case ViewConsoleLibrary:
		res = consoleLibrary(w, req.Console)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, req.View)
	}

	res.View = string(req.View)
	if res.Title == "" {
		res.Title = spec.label
	}
	if res.Chart.Title == "" {
		res.Chart.Title = res.Title
	}
	return res, nil
}

// --- TABLE HELPERS ---

const colCount = "Count"

func stringCol(name string) models.Column { return models.Column{Name: name, Type: models.TypeString} }
func intCol(name string) models.Column    { return models.Column{Name: name, Type: models.TypeInt} }
func floatCol(name string) models.Column  { return models.Column{Name: name, Type: models.TypeFloat} }

func newTable(cols ...models.Column) models.Table {
	return models.Table{Columns: cols, Rows: [][]any{}}
}

// nullable maps the empty string to a null cell.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// recordTable lays out selected rows (positions into w) with w's columns.
func recordTable(w WorkingDataset, positions []int) models.Table {
	names := w.Columns()
	cols := make([]models.Column, len(names))
	for i, name := range names {
		if name == ColCopiesSold {
			cols[i] = floatCol(name)
		} else {
			cols[i] = stringCol(name)
		}
	}
	t := newTable(cols...)
	for _, p := range positions {
		t.Rows = append(t.Rows, recordCells(w.Record(p), names))
	}
	return t
}

func recordCells(r Record, names []string) []any {
	row := make([]any, len(names))
	for i, name := range names {
		switch name {
		case ColGame:
			row[i] = nullable(r.Game)
		case ColDeveloper:
			row[i] = nullable(r.Developer)
		case ColPublisher:
			row[i] = nullable(r.Publisher)
		case ColGenre:
			row[i] = nullable(r.Genre)
		case ColConsole:
			row[i] = nullable(r.Console)
		case ColReleaseDate:
			row[i] = nullable(r.ReleaseDate)
		case ColCopiesSold:
			row[i] = r.CopiesSold
		}
	}
	return row
}

// countTable renders id buckets as (label, Count), most frequent first.
func countTable(bs []*bucket[int32], dict *Dictionary, label string) models.Table {
	sortByCountDesc(bs)
	t := newTable(stringCol(label), intCol(colCount))
	for _, b := range bs {
		t.Rows = append(t.Rows, []any{dict.Value(b.Key), int64(b.Count)})
	}
	return t
}

func sumTable(bs []*bucket[int32], dict *Dictionary, label string) models.Table {
	t := newTable(stringCol(label), floatCol(ColCopiesSold))
	for _, b := range bs {
		t.Rows = append(t.Rows, []any{dict.Value(b.Key), b.Sum})
	}
	return t
}

// --- VIEWS ---

func topDevelopers(w WorkingDataset) *models.ViewResult {
	bs := groupRows(w, byID(w.ds.developerIDs), false)
	return &models.ViewResult{
		Chart: models.Chart{Kind: models.ChartTable},
		Table: countTable(bs, w.ds.developers, ColDeveloper),
	}
}

func topGamesBySales(w WorkingDataset, n int) *models.ViewResult {
	bs := groupRows(w, byID(w.ds.gameIDs), false)
	sortByLabel(bs, w.ds.games)
	sortBySumDesc(bs)
	return &models.ViewResult{
		Chart: models.Chart{Kind: models.ChartBar, X: ColGame, Y: ColCopiesSold},
		Table: sumTable(head(bs, n), w.ds.games, ColGame),
	}
}

func yearlySales(w WorkingDataset) *models.ViewResult {
	bs := groupRows(w, byYear(w), false)
	sortByYear(bs)
	t := newTable(intCol("Year"), floatCol(ColCopiesSold))
	for _, b := range bs {
		t.Rows = append(t.Rows, []any{int64(b.Key), b.Sum})
	}
	return &models.ViewResult{
		Chart: models.Chart{Kind: models.ChartBar, X: "Year", Y: ColCopiesSold},
		Table: t,
	}
}

func genreSpectrum(w WorkingDataset) *models.ViewResult {
	bs := groupRows(w, byID(w.ds.genreIDs), false)
	return &models.ViewResult{
		Chart: models.Chart{Kind: models.ChartPie, Names: ColGenre, Values: colCount, Hole: 0.3},
		Table: countTable(bs, w.ds.genres, ColGenre),
	}
}

func publisherSales(w WorkingDataset, n int) *models.ViewResult {
	bs := groupRows(w, byID(w.ds.publisherIDs), false)
	sortByLabel(bs, w.ds.publishers)
	sortBySumDesc(bs)
	return &models.ViewResult{
		Chart: models.Chart{Kind: models.ChartBar, X: ColCopiesSold, Y: ColPublisher, Orientation: "h"},
		Table: sumTable(head(bs, n), w.ds.publishers, ColPublisher),
	}
}

func consoleSales(w WorkingDataset) *models.ViewResult {
	bs := groupRows(w, byID(w.ds.consoleIDs), false)
	sortByLabel(bs, w.ds.consoles)
	sortBySumDesc(bs)
	return &models.ViewResult{
		Chart: models.Chart{Kind: models.ChartBar, X: ColConsole, Y: ColCopiesSold},
		Table: sumTable(bs, w.ds.consoles, ColConsole),
	}
}

type genrePublisher struct{ genre, publisher int32 }

func topPublishersByGenre(w WorkingDataset) *models.ViewResult {
	genres, publishers := w.ds.genreIDs, w.ds.publisherIDs
	bs := groupRows(w, func(r int32) (genrePublisher, bool) {
		k := genrePublisher{genres[r], publishers[r]}
		return k, k.genre != nullID && k.publisher != nullID
	}, false)

	gd, pd := w.ds.genres, w.ds.publishers
	less := func(i, j int) bool {
		gi, gj := gd.Value(bs[i].Key.genre), gd.Value(bs[j].Key.genre)
		if gi != gj {
			return gi < gj
		}
		return pd.Value(bs[i].Key.publisher) < pd.Value(bs[j].Key.publisher)
	}
	sortSlice(bs, less)

	t := newTable(stringCol(ColGenre), stringCol(ColPublisher), floatCol(ColCopiesSold))
	for _, b := range bs {
		t.Rows = append(t.Rows, []any{gd.Value(b.Key.genre), pd.Value(b.Key.publisher), b.Sum})
	}
	return &models.ViewResult{
		Chart: models.Chart{
			Kind:   models.ChartSunburst,
			Path:   []string{ColGenre, ColPublisher},
			Values: ColCopiesSold,
		},
		Table: t,
	}
}

// salesDistributionByYear lists every dated record as a (Year, Copies sold)
// point, ordered by year. The box chart computes quartiles, whiskers and
// outliers from these points itself.
func salesDistributionByYear(w WorkingDataset) *models.ViewResult {
	year := byYear(w)
	type point struct {
		year   int
		copies float64
	}
	points := make([]point, 0, len(w.rows))
	for _, r := range w.rows {
		if y, ok := year(r); ok {
			points = append(points, point{y, w.ds.copies[r]})
		}
	}
	sortSlice(points, func(i, j int) bool { return points[i].year < points[j].year })

	t := newTable(intCol("Year"), floatCol(ColCopiesSold))
	for _, p := range points {
		t.Rows = append(t.Rows, []any{int64(p.year), p.copies})
	}
	return &models.ViewResult{
		Chart: models.Chart{Kind: models.ChartBox, X: "Year", Y: ColCopiesSold},
		Table: t,
	}
}

func platformPopularity(w WorkingDataset) *models.ViewResult {
	bs := groupRows(w, byID(w.ds.consoleIDs), false)
	return &models.ViewResult{
		Chart: models.Chart{Kind: models.ChartTable},
		Table: countTable(bs, w.ds.consoles, ColConsole),
	}
}

func avgSalesPerGenre(w WorkingDataset) *models.ViewResult {
	bs := groupRows(w, byID(w.ds.genreIDs), true)
	sortByLabel(bs, w.ds.genres)
	t := newTable(stringCol(ColGenre), floatCol(ColCopiesSold))
	for _, b := range bs {
		t.Rows = append(t.Rows, []any{w.ds.genres.Value(b.Key), stats.Mean(b.Values)})
	}
	return &models.ViewResult{
		Chart: models.Chart{Kind: models.ChartBar, X: ColGenre, Y: ColCopiesSold},
		Table: t,
	}
}

func topGamesByGenre(w WorkingDataset, n int, genre string) *models.ViewResult {
	if genre == "" {
		if gs := w.Genres(); len(gs) > 0 {
			genre = gs[0]
		}
	}

	var positions []int
	if id, ok := w.ds.genres.Lookup(genre); ok {
		for i, r := range w.rows {
			if w.ds.genreIDs[r] == id {
				positions = append(positions, i)
			}
		}
	}
	sortSlice(positions, func(i, j int) bool {
		return w.ds.copies[w.rows[positions[i]]] > w.ds.copies[w.rows[positions[j]]]
	})

	var title string
	if genre != "" {
		title = fmt.Sprintf("Top %d Games in %s", n, genre)
	}
	return &models.ViewResult{
		Title: title,
		Chart: models.Chart{Kind: models.ChartBar, X: ColGame, Y: ColCopiesSold},
		Table: recordTable(w, head(positions, n)),
	}
}

func gamesReleasedOverTime(w WorkingDataset) *models.ViewResult {
	bs := groupRows(w, byYear(w), false)
	sortByYear(bs)
	t := newTable(intCol("Year"), intCol("Number of Games"))
	for _, b := range bs {
		t.Rows = append(t.Rows, []any{int64(b.Key), int64(b.Count)})
	}
	return &models.ViewResult{
		Chart: models.Chart{Kind: models.ChartLine, X: "Year", Y: "Number of Games"},
		Table: t,
	}
}

func consoleLibrary(w WorkingDataset, console string) *models.ViewResult {
	if console == "" {
		if cs := w.Consoles(); len(cs) > 0 {
			console = cs[0]
		}
	}

	var positions []int
	if id, ok := w.ds.consoles.Lookup(console); ok {
		for i, r := range w.rows {
			if w.ds.consoleIDs[r] == id {
				positions = append(positions, i)
			}
		}
	}
	title := "Console Library"
	if console != "" {
		title = fmt.Sprintf("Console Library: %s", console)
	}
	return &models.ViewResult{
		Title: title,
		Chart: models.Chart{Kind: models.ChartTable},
		Table: recordTable(w, positions),
	}
}
