package icio

import (
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

// TotalOutputRow is the label of the ICIO row holding total output per
// country-sector column.
const TotalOutputRow = "OUT"

// TotalOutput maps a composite column key to the total output of that
// country-sector pair, in current US$.
type TotalOutput map[economy.CompositeKey]float64

// Value returns the total output for key.  ok is false on a missing key; the
// caller decides the miss policy (the design matrix builder records an
// unresolved cell, it never aborts).
func (o TotalOutput) Value(key economy.CompositeKey) (float64, bool) {
	v, ok := o[key]
	return v, ok
}

// Index is the derived view of one ICIO table: the total-output row, the
// ordered sector list of the reference country, and the set of countries that
// actually appear in the columns.
type Index struct {
	// ReferenceCountry is the country whose columns defined Sectors.
	ReferenceCountry economy.CountryCode

	// Sectors preserves the column order of the source table; it is never
	// resorted.
	Sectors []economy.SectorCode

	// Countries lists every country appearing in at least one column, in
	// first-column order.
	Countries []economy.CountryCode

	// Totals is the "OUT" row keyed by composite column key.
	Totals TotalOutput
}

// BuildIndex extracts the Index from a parsed table.
//
// Hard failures, all raised before any estimation can start:
//   - the "OUT" row is absent (SRC_002): the table cannot express totals;
//   - no column carries the reference-country prefix (EST_001): an empty
//     sector list would make the regression meaningless downstream;
//   - a country present in the table lacks a sector the reference country has
//     (EST_003): the single-reference-country convention only holds when
//     sector naming is uniform, so a gap means silently mismatched rows.
func BuildIndex(t *Table, reference economy.CountryCode) (*Index, error) {
	outValues, ok := t.Row(TotalOutputRow)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeDataSourceParseError,
			"ICIO table has no %q row", TotalOutputRow)
	}

	idx := &Index{
		ReferenceCountry: reference,
		Totals:           make(TotalOutput, len(t.Columns())),
	}

	seenCountry := make(map[economy.CountryCode]bool)
	for i, key := range t.Columns() {
		idx.Totals[key] = outValues[i]

		if sector, ok := key.SectorSuffix(reference); ok {
			idx.Sectors = append(idx.Sectors, sector)
		}
		if country, _, ok := key.Split(); ok && !seenCountry[country] {
			seenCountry[country] = true
			idx.Countries = append(idx.Countries, country)
		}
	}

	if len(idx.Sectors) == 0 {
		return nil, errors.New(errors.ErrCodeEmptySectorList,
			"reference country prefix matched no columns").
			WithDetail(string(reference))
	}

	if err := idx.validateUniformSectors(t); err != nil {
		return nil, err
	}

	return idx, nil
}

// validateUniformSectors checks that every country appearing in the table has
// a column for every reference sector.
func (idx *Index) validateUniformSectors(t *Table) error {
	present := make(map[economy.CompositeKey]bool, len(t.Columns()))
	for _, key := range t.Columns() {
		present[key] = true
	}
	for _, country := range idx.Countries {
		for _, sector := range idx.Sectors {
			if key := economy.NewCompositeKey(country, sector); !present[key] {
				return errors.New(errors.ErrCodeSectorMismatch,
					"country lacks a sector present in the reference country").
					WithDetail(string(key))
			}
		}
	}
	return nil
}
