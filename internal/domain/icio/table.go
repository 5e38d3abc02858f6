// Package icio models the OECD inter-country input-output table: a row-label
// indexed matrix whose columns are "{COUNTRY}_{SECTOR}" composite keys, with
// a special "OUT" row holding total output per column.
package icio

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

// Table is the parsed ICIO table.  Row labels distinguish total output from
// intermediate flows; columns keep source order.  Build-once, read-only.
type Table struct {
	columns []economy.CompositeKey
	rows    map[string][]float64
	order   []string
}

// ParseCSV reads an ICIO table in the OECD published layout: the first column
// carries row labels (pandas surfaces its unnamed header as "Unnamed: 0"; the
// header text itself is ignored here), every other header cell is a composite
// column key.  Cells that do not parse as numbers become NaN rather than
// failing the whole parse; structural problems (no header, ragged records)
// are SRC_002 errors.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceParseError,
			"ICIO table has no header row")
	}
	if len(header) < 2 {
		return nil, errors.New(errors.ErrCodeDataSourceParseError,
			"ICIO header carries no data columns")
	}

	t := &Table{
		columns: make([]economy.CompositeKey, 0, len(header)-1),
		rows:    make(map[string][]float64),
	}
	for _, name := range header[1:] {
		t.columns = append(t.columns, economy.CompositeKey(name))
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDataSourceParseError,
				"failed to read ICIO record")
		}
		if len(record) != len(header) {
			return nil, errors.Newf(errors.ErrCodeDataSourceParseError,
				"ICIO record for %q has %d cells, header has %d",
				record[0], len(record), len(header))
		}

		label := record[0]
		values := make([]float64, len(record)-1)
		for i, cell := range record[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				v = math.NaN()
			}
			values[i] = v
		}
		if _, seen := t.rows[label]; !seen {
			t.order = append(t.order, label)
		}
		t.rows[label] = values
	}

	return t, nil
}

// Columns returns the composite column keys in source order.
func (t *Table) Columns() []economy.CompositeKey {
	return t.columns
}

// RowLabels returns the row labels in source order.
func (t *Table) RowLabels() []string {
	return t.order
}

// Row returns the values of the row with the given label, aligned with
// Columns().  ok is false when the label is absent.
func (t *Table) Row(label string) (values []float64, ok bool) {
	values, ok = t.rows[label]
	return values, ok
}
