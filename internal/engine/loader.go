package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"dashboard/internal/logger"

	"github.com/klauspost/compress/gzip"
	"github.com/shopspring/decimal"
)

// ErrDataFormat matches every structural load failure.
var ErrDataFormat = errors.New("data format error")

// DataFormatError reports a source that cannot be turned into a dataset at all.
type DataFormatError struct {
	Source  string
	Missing []string // required columns absent from the header
	Err     error
}

func (e *DataFormatError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("%s: malformed source", e.Source)
	}
}

func (e *DataFormatError) Unwrap() error { return e.Err }

func (e *DataFormatError) Is(target error) bool { return target == ErrDataFormat }

// --- 1. FIELD HELPERS ---

// coerceCopies strips everything but ASCII digits and '.' and parses the
// rest as a decimal: "1,234.5 units" -> 1234.5. ok is false when nothing
// numeric is left ("", ".", "1.2.3").
func coerceCopies(raw string) (float64, bool) {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; (c >= '0' && c <= '9') || c == '.' {
			b.WriteByte(c)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// columnIndex holds the header position of each required column, in
// RequiredColumns order.
type columnIndex [7]int

func indexColumns(header []string) (columnIndex, []string) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	var idx columnIndex
	var missing []string
	for i, name := range RequiredColumns {
		p, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[i] = p
	}
	return idx, missing
}

// field returns row[i], or "" for short rows.
func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// --- 2. MAIN LOADER ---

// LoadFile reads a CSV file, transparently decompressing ".gz" sources.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataFormatError{Source: path, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, &DataFormatError{Source: path, Err: fmt.Errorf("open gzip stream: %w", err)}
		}
		defer zr.Close()
		r = zr
	}
	return LoadReader(path, r)
}

// LoadReader parses a CSV stream into a normalized Dataset. Rows whose
// sales figure cannot be coerced are dropped; only Dropped() reports them.
func LoadReader(name string, r io.Reader) (*Dataset, error) {
	start := time.Now()
	log := logger.Get("loader")

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &DataFormatError{Source: name, Err: errors.New("empty source")}
	}
	if err != nil {
		return nil, &DataFormatError{Source: name, Err: err}
	}
	width := len(header)
	idx, missing := indexColumns(header)
	if len(missing) > 0 {
		return nil, &DataFormatError{Source: name, Missing: missing}
	}

	ds := newDataset(name)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DataFormatError{Source: name, Err: err}
		}
		if len(row) > width {
			line, _ := cr.FieldPos(0)
			return nil, &DataFormatError{
				Source: name,
				Err:    fmt.Errorf("line %d: expected %d fields, saw %d", line, width, len(row)),
			}
		}

		copies, ok := coerceCopies(field(row, idx[6]))
		if !ok {
			ds.dropped++
			continue
		}
		ds.append(Record{
			Game:        field(row, idx[0]),
			Developer:   field(row, idx[1]),
			Publisher:   field(row, idx[2]),
			Genre:       field(row, idx[3]),
			Console:     field(row, idx[4]),
			ReleaseDate: field(row, idx[5]),
			CopiesSold:  copies,
		})
	}

	log.Info().
		Str("source", name).
		Int("rows", ds.Len()).
		Int("dropped", ds.dropped).
		Dur("elapsed", time.Since(start)).
		Msg("Load complete")
	return ds, nil
}
