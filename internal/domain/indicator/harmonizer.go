package indicator

import (
	"context"
	"math"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

// Table is the harmonized country table: one row per country present in at
// least one input series, one column per indicator plus the derived PPP
// column.  Build-once, read-only afterward.
type Table struct {
	columns []string
	order   []economy.CountryCode
	rows    map[economy.CountryCode]map[string]float64
}

// Columns returns the ordered column names, PPP last.
func (t *Table) Columns() []string {
	return t.columns
}

// Countries returns the country codes in row order.
func (t *Table) Countries() []economy.CountryCode {
	return t.order
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.order)
}

// Value returns the cell for (country, column).  Unknown countries or columns
// yield NaN.
func (t *Table) Value(country economy.CountryCode, column string) float64 {
	row, ok := t.rows[country]
	if !ok {
		return math.NaN()
	}
	v, ok := row[column]
	if !ok {
		return math.NaN()
	}
	return v
}

// PPP returns the derived US$/int$ conversion factor for country, NaN when
// either GNI column was missing.
func (t *Table) PPP(country economy.CountryCode) float64 {
	return t.Value(country, PPPColumn)
}

// Harmonizer merges the configured indicator series into one Table.
type Harmonizer struct {
	source     SeriesSource
	indicators []Definition
	log        logging.Logger
}

// NewHarmonizer builds a Harmonizer over source.  When indicators is empty
// DefaultIndicators is used.
func NewHarmonizer(source SeriesSource, indicators []Definition, log logging.Logger) *Harmonizer {
	if len(indicators) == 0 {
		indicators = DefaultIndicators
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Harmonizer{source: source, indicators: indicators, log: log.Named("harmonizer")}
}

// Harmonize fetches every configured indicator series, reduces each to one
// value per country, outer-joins them on country code into a table with a
// schema known up front, and appends the derived PPP column.
//
// A country absent from one series gets a NaN cell for that column, never a
// hard failure.  A fetch error on any series aborts the whole build; an empty
// result table is surfaced as ErrCodeEmptyCountrySet since estimation over
// zero countries is meaningless.
func (h *Harmonizer) Harmonize(ctx context.Context) (*Table, error) {
	columns := make([]string, 0, len(h.indicators)+1)
	for _, def := range h.indicators {
		columns = append(columns, def.Name)
	}
	columns = append(columns, PPPColumn)

	t := &Table{
		columns: columns,
		rows:    make(map[economy.CountryCode]map[string]float64),
	}

	for _, def := range h.indicators {
		obs, err := h.source.FetchLatest(ctx, def.Code)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDataSourceUnavailable,
				"failed to fetch indicator series").WithDetail(def.Code)
		}
		series := ReduceLatest(obs)

		h.log.Debug("indicator series reduced",
			logging.String("code", def.Code),
			logging.String("column", def.Name),
			logging.Int("countries", series.Len()),
		)

		// Outer join: new countries extend the row set, existing rows gain a
		// column.  Cells for countries missing from this series stay NaN via
		// the Value lookup default.
		for _, c := range series.Countries() {
			row, ok := t.rows[c]
			if !ok {
				row = make(map[string]float64, len(columns))
				t.rows[c] = row
				t.order = append(t.order, c)
			}
			row[def.Name] = series.Value(c)
		}
	}

	if len(t.order) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyCountrySet,
			"no country appeared in any indicator series")
	}

	// Derived column: PPP = GNI per capita (Atlas) / GNI per capita (PPP).
	// Unit: US$/int$.  NaN operands propagate into a NaN ratio.
	for _, c := range t.order {
		atlas := t.Value(c, ColGNIAtlasPC)
		ppp := t.Value(c, ColGNIPPPPC)
		t.rows[c][PPPColumn] = atlas / ppp
	}

	h.log.Info("harmonized country table built",
		logging.Int("countries", len(t.order)),
		logging.Int("columns", len(columns)),
	)
	return t, nil
}
