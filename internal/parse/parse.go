// Package parse reads CSV table exports into header-keyed rows.
package parse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\uFEFF"

// Row is a single data record keyed by header field name
type Row struct {
	fields []string
	index  map[string]int
	line   int
}

// Get returns the value of a field and whether the row carries it.
// Fields named in the header but missing from a short row are absent.
func (r Row) Get(field string) (string, bool) {
	i, ok := r.index[field]
	if !ok || i >= len(r.fields) {
		return "", false
	}
	return r.fields[i], true
}

// Line returns the 1-based line in the source where the row starts
func (r Row) Line() int {
	return r.line
}

// Reader streams rows from a CSV source with a header row
type Reader struct {
	csv    *csv.Reader
	header []string
	index  map[string]int
}

// NewReader reads the header row from src and returns a Reader positioned
// at the first data row. An empty source yields a Reader with no header
// and no rows.
func NewReader(src io.Reader) (*Reader, error) {
	cr := csv.NewReader(src)
	// Row widths vary in hand-edited exports; short rows leave fields absent.
	cr.FieldsPerRecord = -1
	// A stray quote inside an unquoted field (12" sub) is data, not an error.
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Reader{csv: cr, index: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	index := make(map[string]int, len(header))
	// Last occurrence wins for duplicate header names
	for i, name := range header {
		index[name] = i
	}

	return &Reader{csv: cr, header: header, index: index}, nil
}

// Header returns the field names of the source
func (r *Reader) Header() []string {
	return r.header
}

// Next returns the next data row. It returns io.EOF when the source is
// exhausted.
func (r *Reader) Next() (Row, error) {
	if r.header == nil {
		return Row{}, io.EOF
	}

	fields, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		return Row{}, fmt.Errorf("failed to read row: %w", err)
	}

	line, _ := r.csv.FieldPos(0)
	return Row{fields: fields, index: r.index, line: line}, nil
}

// Each calls fn for every remaining row, stopping at the first error
func (r *Reader) Each(fn func(Row) error) error {
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// NewRow builds a row from a field map, for callers that assemble rows
// without a CSV source
func NewRow(values map[string]string) Row {
	fields := make([]string, 0, len(values))
	index := make(map[string]int, len(values))
	for name, value := range values {
		index[name] = len(fields)
		fields = append(fields, value)
	}
	return Row{fields: fields, index: index}
}
