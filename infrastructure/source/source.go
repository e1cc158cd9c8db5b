// Package source reads raw color rows from delimited files.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yablochko8/color-finder-semantic-search/domain/color"
)

// ErrNoHeader indicates an empty source.
var ErrNoHeader = errors.New("source has no header row")

// ReadFile reads rows from the CSV file at path.
func ReadFile(path string) ([]color.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Read returns one Row per data line, in file order, skipping the header.
// Columns are name, hex, marker. Short lines give empty fields so row
// offsets stay aligned with the file; validation rejects them later.
func Read(r io.Reader) ([]color.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []color.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows), err)
		}
		rows = append(rows, color.Row{
			Name:   field(record, 0),
			Hex:    field(record, 1),
			Marker: field(record, 2),
		})
	}
	return rows, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
