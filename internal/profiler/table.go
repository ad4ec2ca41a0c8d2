// Package profiler computes column statistics for uploaded tabular files and
// produces heuristic quality insights. It backs the local reference service.
package profiler

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupported indicates a file format the profiler cannot read.
var ErrUnsupported = errors.New("unsupported file format")

// Options controls how uploads are read.
type Options struct {
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// SampleValues is how many non-null values each column keeps.
	SampleValues int
	// Delimiter for CSV. If 0, chosen from the file name (tab for .tsv, else comma).
	Delimiter rune
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
}

// DefaultOptions mirrors the service defaults.
func DefaultOptions() Options {
	return Options{MaxRows: 1_000_000, SampleValues: 5}
}

// Table is a header plus string cells. Rows are padded to the header width.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable dispatches on the file extension.
func ReadTable(name string, content []byte, opt Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		delim := opt.Delimiter
		if delim == 0 {
			delim = sniffDelimiter(name)
		}
		return ReadCSV(bytes.NewReader(content), delim, opt.MaxRows)
	case ".xlsx":
		return ReadXLSX(content, opt.Sheet, opt.MaxRows)
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls workbooks are not supported, save as .xlsx", ErrUnsupported)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
}

// ReadCSV reads delimited text. An empty input yields an empty table.
func ReadCSV(r io.Reader, delim rune, maxRows int) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = delim != '\t'
	cr.LazyQuotes = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &Table{Header: normalizeHeader(header)}
	for {
		if maxRows > 0 && len(t.Rows) >= maxRows {
			break
		}
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, pad(rec, len(t.Header)))
	}
	return t, nil
}

func normalizeHeader(h []string) []string {
	out := make([]string, len(h))
	for i, name := range h {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = name
	}
	return out
}

// pad copies rec into a row exactly n cells wide.
func pad(rec []string, n int) []string {
	row := make([]string, n)
	copy(row, rec)
	return row
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	return ','
}
