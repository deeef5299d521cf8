package engine

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"dashboard/internal/models"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// CSVFileName is the download name of ExportCSV output.
const CSVFileName = "filtered_games.csv"

// arrowBatchSize is the number of rows per Arrow record batch.
const arrowBatchSize = 10000

// Table lays out every selected row with the visible columns.
func (w WorkingDataset) Table() models.Table {
	positions := make([]int, w.Len())
	for i := range positions {
		positions[i] = i
	}
	return recordTable(w, positions)
}

// ExportCSV serializes w as UTF-8 CSV. The header is the visible column set,
// so a dropped publisher column is absent; null cells are written empty.
func ExportCSV(w WorkingDataset) ([]byte, error) {
	names := w.Columns()
	buffer := bytes.NewBuffer(make([]byte, 0, 64*1024))
	writer := csv.NewWriter(buffer)

	if err := writer.Write(names); err != nil {
		return nil, err
	}
	row := make([]string, len(names))
	for i := 0; i < w.Len(); i++ {
		r := w.Record(i)
		for j, name := range names {
			row[j] = csvCell(r, name)
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buffer.Bytes(), nil
}

func csvCell(r Record, name string) string {
	switch name {
	case ColGame:
		return r.Game
	case ColDeveloper:
		return r.Developer
	case ColPublisher:
		return r.Publisher
	case ColGenre:
		return r.Genre
	case ColConsole:
		return r.Console
	case ColReleaseDate:
		return r.ReleaseDate
	case ColCopiesSold:
		return strconv.FormatFloat(r.CopiesSold, 'f', -1, 64)
	}
	return ""
}

// ExportArrow encodes t as an Arrow IPC stream.
func ExportArrow(t models.Table) ([]byte, error) {
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	var buf bytes.Buffer
	mem := memory.NewGoAllocator()
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))

	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	flush := func() error {
		rec := builder.NewRecord()
		defer rec.Release()
		return w.Write(rec)
	}

	batchRows := 0
	for _, row := range t.Rows {
		for i, v := range row {
			appendArrowValue(builder.Field(i), v)
		}
		batchRows++
		if batchRows >= arrowBatchSize {
			if err := flush(); err != nil {
				w.Close()
				return nil, fmt.Errorf("write arrow batch: %w", err)
			}
			batchRows = 0
		}
	}
	if batchRows > 0 || len(t.Rows) == 0 {
		if err := flush(); err != nil {
			w.Close()
			return nil, fmt.Errorf("write arrow batch: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close arrow stream: %w", err)
	}
	return buf.Bytes(), nil
}

func arrowType(t models.ColumnType) arrow.DataType {
	switch t {
	case models.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case models.TypeFloat:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

func appendArrowValue(b array.Builder, v any) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch b := b.(type) {
	case *array.Int64Builder:
		switch x := v.(type) {
		case int64:
			b.Append(x)
		case int:
			b.Append(int64(x))
		default:
			b.AppendNull()
		}
	case *array.Float64Builder:
		switch x := v.(type) {
		case float64:
			b.Append(x)
		case int64:
			b.Append(float64(x))
		default:
			b.AppendNull()
		}
	case *array.StringBuilder:
		switch x := v.(type) {
		case string:
			b.Append(x)
		default:
			b.Append(fmt.Sprintf("%v", x))
		}
	default:
		b.AppendNull()
	}
}
