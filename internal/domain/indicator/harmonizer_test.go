package indicator

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/testutil"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
)

// stubSource serves canned observations per series code.
type stubSource struct {
	series map[string][]Observation
	errs   map[string]error
}

func (s *stubSource) FetchLatest(_ context.Context, code string) ([]Observation, error) {
	if err, ok := s.errs[code]; ok {
		return nil, err
	}
	return s.series[code], nil
}

func twoIndicators() []Definition {
	return []Definition{
		{Code: "NY_GNP_PCAP_CD", Name: ColGNIAtlasPC},
		{Code: "NY_GNP_PCAP_PP_CD", Name: ColGNIPPPPC},
	}
}

func TestHarmonizeBuildsOneRowPerCountry(t *testing.T) {
	source := &stubSource{series: map[string][]Observation{
		"NY_GNP_PCAP_CD": {
			{Country: "AUS", Period: "2020", Value: 60000},
			{Country: "DEU", Period: "2020", Value: 50000},
		},
		"NY_GNP_PCAP_PP_CD": {
			{Country: "AUS", Period: "2020", Value: 55000},
			{Country: "DEU", Period: "2020", Value: 58000},
		},
	}}

	table, err := NewHarmonizer(source, twoIndicators(), testutil.NewMockLogger()).
		Harmonize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 60000.0, table.Value("AUS", ColGNIAtlasPC))
	assert.Equal(t, 58000.0, table.Value("DEU", ColGNIPPPPC))
}

func TestHarmonizePPPColumnIsAtlasOverPPP(t *testing.T) {
	source := &stubSource{series: map[string][]Observation{
		"NY_GNP_PCAP_CD":    {{Country: "AUS", Period: "2020", Value: 60000}},
		"NY_GNP_PCAP_PP_CD": {{Country: "AUS", Period: "2020", Value: 48000}},
	}}

	table, err := NewHarmonizer(source, twoIndicators(), nil).Harmonize(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 1.25, table.PPP("AUS"), 1e-12)

	cols := table.Columns()
	assert.Equal(t, PPPColumn, cols[len(cols)-1])
}

func TestHarmonizeOuterJoinLeavesNaNCells(t *testing.T) {
	// DEU appears only in the Atlas series; its PPP-series cell must be NaN
	// and the derived PPP ratio NaN as well, but the row must exist.
	source := &stubSource{series: map[string][]Observation{
		"NY_GNP_PCAP_CD": {
			{Country: "AUS", Period: "2020", Value: 60000},
			{Country: "DEU", Period: "2020", Value: 50000},
		},
		"NY_GNP_PCAP_PP_CD": {{Country: "AUS", Period: "2020", Value: 55000}},
	}}

	table, err := NewHarmonizer(source, twoIndicators(), nil).Harmonize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.True(t, math.IsNaN(table.Value("DEU", ColGNIPPPPC)))
	assert.True(t, math.IsNaN(table.PPP("DEU")))
	assert.False(t, math.IsNaN(table.PPP("AUS")))
}

func TestHarmonizeFetchErrorAborts(t *testing.T) {
	source := &stubSource{
		series: map[string][]Observation{
			"NY_GNP_PCAP_CD": {{Country: "AUS", Period: "2020", Value: 1}},
		},
		errs: map[string]error{
			"NY_GNP_PCAP_PP_CD": errors.New(errors.ErrCodeDataSourceUnavailable, "boom"),
		},
	}

	_, err := NewHarmonizer(source, twoIndicators(), nil).Harmonize(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceUnavailable))
	assert.Contains(t, err.Error(), "NY_GNP_PCAP_PP_CD")
}

func TestHarmonizeEmptyResultIsEmptyCountrySet(t *testing.T) {
	source := &stubSource{series: map[string][]Observation{}}

	_, err := NewHarmonizer(source, twoIndicators(), nil).Harmonize(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyCountrySet))
}

func TestHarmonizeDefaultsToFullIndicatorSet(t *testing.T) {
	source := &stubSource{series: map[string][]Observation{}}
	h := NewHarmonizer(source, nil, nil)

	assert.Len(t, h.indicators, len(DefaultIndicators))
}

func TestTableValueUnknownColumnIsNaN(t *testing.T) {
	source := &stubSource{series: map[string][]Observation{
		"NY_GNP_PCAP_CD":    {{Country: "AUS", Period: "2020", Value: 1}},
		"NY_GNP_PCAP_PP_CD": {{Country: "AUS", Period: "2020", Value: 1}},
	}}
	table, err := NewHarmonizer(source, twoIndicators(), nil).Harmonize(context.Background())
	require.NoError(t, err)

	assert.True(t, math.IsNaN(table.Value("AUS", "no such column")))
}
