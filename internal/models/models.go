package models

// ColumnType is the value type of every cell in a table column.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
)

type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Table is a derived, ordered table. Cells are string, int64 or float64
// according to the column type; nil is a null cell.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ChartKind names how the front end should draw a view.
type ChartKind string

const (
	ChartTable    ChartKind = "table"
	ChartBar      ChartKind = "bar"
	ChartPie      ChartKind = "pie"
	ChartSunburst ChartKind = "sunburst"
	ChartBox      ChartKind = "box"
	ChartLine     ChartKind = "line"
)

// Chart is the encoding of a table onto a chart. Field values are column
// names of the accompanying Table.
type Chart struct {
	Kind        ChartKind `json:"kind"`
	Title       string    `json:"title"`
	X           string    `json:"x,omitempty"`
	Y           string    `json:"y,omitempty"`
	Names       string    `json:"names,omitempty"`
	Values      string    `json:"values,omitempty"`
	Path        []string  `json:"path,omitempty"`
	Orientation string    `json:"orientation,omitempty"`
	Hole        float64   `json:"hole,omitempty"`
}

type ViewResult struct {
	View  string `json:"view"`
	Title string `json:"title"`
	Chart Chart  `json:"chart"`
	Table Table  `json:"table"`
}

// ViewInfo describes a selectable view for the front end's selector.
type ViewInfo struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Params []string `json:"params,omitempty"`
}

type DatasetInfo struct {
	Source  string   `json:"source"`
	Rows    int      `json:"rows"`
	Dropped int      `json:"dropped"`
	Columns []string `json:"columns"`
}

type Options struct {
	Genres   []string `json:"genres"`
	Consoles []string `json:"consoles"`
}
