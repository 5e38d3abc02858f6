// Package indicator models single-indicator country time series from the UN
// world development indicator feed and their harmonization into one
// country-indexed table with a derived purchasing-power-parity column.
package indicator

import (
	"math"

	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

// Definition names one WDI indicator: its SDMX series code and the
// human-readable column name it contributes to the harmonized table.
type Definition struct {
	Code string
	Name string
}

// Column names of the harmonized table.  PPPColumn is derived, the rest map
// 1:1 to WDI series.
const (
	ColAgriculturalLand = "Agricultural land (% of land area)"
	ColForestArea       = "Forest area (sq. km)"
	ColCO2PerCapita     = "CO2 emissions (metric tons per capita)"
	ColGDP              = "GDP (current US$)"
	ColGNIAtlasPC       = "GNI per capita, Atlas method (current US$)"
	ColGNIPPPPC         = "GNI per capita, PPP (current international $)"
	ColGNIAtlas         = "GNI, Atlas method (current US$)"
	ColGNIPPP           = "GNI, PPP (current international $)"
	ColSurfaceArea      = "Surface area (sq. km)"

	// PPPColumn holds the derived US$-per-international-$ conversion factor:
	// GNI per capita (Atlas) divided by GNI per capita (PPP).
	PPPColumn = "PPP"
)

// DefaultIndicators is the fixed set of WDI series the pipeline harmonizes.
var DefaultIndicators = []Definition{
	{Code: "AG_LND_AGRI_ZS", Name: ColAgriculturalLand},
	{Code: "AG_LND_FRST_K2", Name: ColForestArea},
	{Code: "EN_ATM_CO2E_PC", Name: ColCO2PerCapita},
	{Code: "NY_GDP_MKTP_CD", Name: ColGDP},
	{Code: "NY_GNP_PCAP_CD", Name: ColGNIAtlasPC},
	{Code: "NY_GNP_PCAP_PP_CD", Name: ColGNIPPPPC},
	{Code: "NY_GNP_ATLS_CD", Name: ColGNIAtlas},
	{Code: "NY_GNP_MKTP_PP_CD", Name: ColGNIPPP},
	{Code: "AG_SRF_TOTL_K2", Name: ColSurfaceArea},
}

// Observation is one dated value for one country within a single indicator
// series, as returned by the SDMX collaborator.
type Observation struct {
	Country economy.CountryCode
	Period  string
	Value   float64
}

// Series maps country code to the single reduced value of one indicator.
// Immutable once built.
type Series struct {
	order  []economy.CountryCode
	values map[economy.CountryCode]float64
}

// ReduceLatest collapses raw observations to one value per country by taking
// the maximum observed value.  The upstream query restricts each country to
// its most recent observation, so at most one value exists per country and
// "maximum" coincides with "latest".  Should the restriction ever return more
// than one observation the reduction silently picks the largest value; that
// behavior is pinned by tests rather than corrected.
//
// Country order follows first appearance in obs, keeping downstream table
// construction deterministic.
func ReduceLatest(obs []Observation) Series {
	s := Series{values: make(map[economy.CountryCode]float64, len(obs))}
	for _, o := range obs {
		if math.IsNaN(o.Value) {
			continue
		}
		prev, seen := s.values[o.Country]
		if !seen {
			s.order = append(s.order, o.Country)
			s.values[o.Country] = o.Value
			continue
		}
		if o.Value > prev {
			s.values[o.Country] = o.Value
		}
	}
	return s
}

// Countries returns the country codes present in the series, in first
// appearance order.  The returned slice must not be mutated.
func (s Series) Countries() []economy.CountryCode {
	return s.order
}

// Value returns the reduced value for country.  Missing countries yield NaN,
// never an error; missing data is resolved by row filtering later in the
// pipeline.
func (s Series) Value(country economy.CountryCode) float64 {
	if v, ok := s.values[country]; ok {
		return v
	}
	return math.NaN()
}

// Len returns the number of countries with a value.
func (s Series) Len() int {
	return len(s.values)
}
