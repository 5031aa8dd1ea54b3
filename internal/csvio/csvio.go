// Package csvio reads decision tables from CSV and writes scored tables back.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MikeSquared-Agency/Topsis/internal/topsis"
)

var (
	ErrEmpty     = errors.New("csv input is empty")
	ErrMalformed = errors.New("csv input is malformed")
)

const bom = "\ufeff"

// Read parses a header record followed by data records.
func Read(r io.Reader) (topsis.DecisionTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return topsis.DecisionTable{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return topsis.DecisionTable{}, ErrEmpty
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], bom)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	rows := records[1:]
	for _, row := range rows {
		for j := range row {
			row[j] = strings.TrimSpace(row[j])
		}
	}
	return topsis.DecisionTable{Columns: header, Rows: rows}, nil
}

// ReadFile reads a decision table from path.
func ReadFile(path string) (topsis.DecisionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return topsis.DecisionTable{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Write emits the scored table with its score and rank columns.
func Write(w io.Writer, st *topsis.ScoredTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(st.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(st.Records()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteFile writes the scored table to path, replacing any existing file.
func WriteFile(path string, st *topsis.ScoredTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, st); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
