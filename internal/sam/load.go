package sam

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads a square accounting matrix from a CSV file whose first row
// and first column carry account names. Empty cells read as zero.
func LoadCSV(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("sam: read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("sam: %s has no data rows", path)
	}

	header := records[0][1:]
	cols := make([]string, 0, len(header))
	for _, h := range header {
		h = strings.TrimSpace(h)
		if h != "" {
			cols = append(cols, h)
		}
	}

	rows := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		rows = append(rows, strings.TrimSpace(rec[0]))
	}

	if len(rows) != len(cols) {
		return nil, fmt.Errorf("%w: %d rows vs %d columns", ErrNotSquare, len(rows), len(cols))
	}
	for i := range rows {
		if rows[i] != cols[i] {
			return nil, fmt.Errorf("%w: row %d is %q but column %d is %q", ErrNotSquare, i, rows[i], i, cols[i])
		}
	}

	m := New(rows)
	for i, rec := range records[1:] {
		for j := 1; j < len(rec) && j <= len(cols); j++ {
			cell := strings.TrimSpace(rec[j])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("sam: cell (%s,%s): %w", rows[i], cols[j-1], err)
			}
			m.data.Set(i, j-1, v)
		}
	}
	return m, nil
}
