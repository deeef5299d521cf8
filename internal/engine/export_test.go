package engine

import (
	"bytes"
	"encoding/csv"
	"testing"

	"dashboard/internal/models"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSVRoundTrip(t *testing.T) {
	w := ApplyFilters(testDataset(), Filters{Search: "a"})
	require.NotZero(t, w.Len())

	body, err := ExportCSV(w)
	require.NoError(t, err)

	// the export is itself a loadable source
	back, err := LoadReader(CSVFileName, bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, w.Len(), back.Len())
	assert.Zero(t, back.Dropped())
	for i := 0; i < w.Len(); i++ {
		assert.Equal(t, w.Record(i), back.Record(i))
	}
}

func TestExportCSVWithoutPublisher(t *testing.T) {
	w := ApplyFilters(testDataset(), Filters{ExcludePublisher: true, Genres: []string{"RPG"}})

	body, err := ExportCSV(w)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, w.Len()+1)

	assert.Equal(t, []string{ColGame, ColDeveloper, ColGenre, ColConsole, ColReleaseDate, ColCopiesSold}, rows[0])
	assert.Equal(t, []string{"Final Fantasy VII", "Square", "RPG", "PlayStation", "1997-01-31", "9.8"}, rows[1])
}

func TestExportCSVEmpty(t *testing.T) {
	body, err := ExportCSV(Working(testDataset()).Search("zelda"))
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{RequiredColumns}, rows)
}

func TestExportCSVNullCells(t *testing.T) {
	body, err := ExportCSV(Working(testDataset()).Search("ghost"))
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Ghost Story", "", "Indie", "", "PC", "TBA", "0.2"}, rows[1])
}

func readArrow(t *testing.T, body []byte) (*arrow.Schema, [][]any) {
	t.Helper()
	reader, err := ipc.NewReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer reader.Release()

	var rows [][]any
	for reader.Next() {
		rec := reader.Record()
		for r := 0; r < int(rec.NumRows()); r++ {
			row := make([]any, rec.NumCols())
			for c := range row {
				col := rec.Column(c)
				if col.IsNull(r) {
					continue
				}
				switch arr := col.(type) {
				case *array.String:
					row[c] = arr.Value(r)
				case *array.Int64:
					row[c] = arr.Value(r)
				case *array.Float64:
					row[c] = arr.Value(r)
				}
			}
			rows = append(rows, row)
		}
	}
	require.NoError(t, reader.Err())
	return reader.Schema(), rows
}

func TestExportArrowView(t *testing.T) {
	res := resolve(t, Working(testDataset()), ViewRequest{View: ViewTopDevelopers})

	body, err := ExportArrow(res.Table)
	require.NoError(t, err)

	schema, rows := readArrow(t, body)
	require.Equal(t, 2, schema.NumFields())
	assert.Equal(t, ColDeveloper, schema.Field(0).Name)
	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(0).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, schema.Field(1).Type)
	assert.Equal(t, res.Table.Rows, rows)
}

func TestExportArrowRecords(t *testing.T) {
	tbl := Working(testDataset()).Table()

	body, err := ExportArrow(tbl)
	require.NoError(t, err)

	schema, rows := readArrow(t, body)
	assert.Equal(t, arrow.PrimitiveTypes.Float64, schema.Field(6).Type)
	// nil cells survive as nulls
	assert.Equal(t, tbl.Rows, rows)
}

func TestExportArrowBatches(t *testing.T) {
	tbl := models.Table{Columns: []models.Column{{Name: "n", Type: models.TypeInt}}}
	for i := 0; i < arrowBatchSize+5; i++ {
		tbl.Rows = append(tbl.Rows, []any{int64(i)})
	}

	body, err := ExportArrow(tbl)
	require.NoError(t, err)

	reader, err := ipc.NewReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer reader.Release()

	var sizes []int64
	for reader.Next() {
		sizes = append(sizes, reader.Record().NumRows())
	}
	require.NoError(t, reader.Err())
	assert.Equal(t, []int64{arrowBatchSize, 5}, sizes)
}

func TestExportArrowEmptyTable(t *testing.T) {
	tbl := models.Table{
		Columns: []models.Column{{Name: "Year", Type: models.TypeInt}, {Name: "Copies sold", Type: models.TypeFloat}},
		Rows:    [][]any{},
	}
	body, err := ExportArrow(tbl)
	require.NoError(t, err)

	schema, rows := readArrow(t, body)
	assert.Equal(t, 2, schema.NumFields())
	assert.Empty(t, rows)
}
