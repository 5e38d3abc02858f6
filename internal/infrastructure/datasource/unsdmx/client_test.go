package unsdmx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/domain/indicator"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/testutil"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

// sdmxFixture is a trimmed SDMX-JSON payload with two countries, one
// observation each, in the AllDimensions layout the client requests.
const sdmxFixture = `{
  "structure": {
    "dimensions": {
      "observation": [
        {"id": "FREQ", "values": [{"id": "A"}]},
        {"id": "SERIES", "values": [{"id": "AG_SRF_TOTL_K2"}]},
        {"id": "REF_AREA", "values": [{"id": "AUS"}, {"id": "DEU"}]},
        {"id": "TIME_PERIOD", "values": [{"id": "2020"}, {"id": "2021"}]}
      ]
    }
  },
  "dataSets": [
    {
      "observations": {
        "0:0:0:1": [7741220.0],
        "0:0:1:0": [357580.0]
      }
    }
  ]
}`

func TestFetchLatestParsesObservations(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(sdmxFixture))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 0, testutil.NewMockLogger())
	obs, err := client.FetchLatest(context.Background(), "AG_SRF_TOTL_K2")
	require.NoError(t, err)

	assert.Equal(t, "/data/DF_UNDATA_WDI/A.AG_SRF_TOTL_K2./", gotPath)
	assert.Contains(t, gotQuery, "lastNObservations=1")
	assert.Contains(t, gotQuery, "dimensionAtObservation=AllDimensions")

	// Sorted by country for deterministic downstream ordering.
	require.Len(t, obs, 2)
	assert.Equal(t, indicator.Observation{
		Country: economy.CountryCode("AUS"), Period: "2021", Value: 7741220,
	}, obs[0])
	assert.Equal(t, indicator.Observation{
		Country: economy.CountryCode("DEU"), Period: "2020", Value: 357580,
	}, obs[1])
}

func TestFetchLatestRetriesThenFails(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 2, nil)
	_, err := client.FetchLatest(context.Background(), "NY_GDP_MKTP_CD")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceUnavailable))
	assert.Equal(t, 3, calls)
}

func TestFetchLatestRecoversAfterTransientFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(sdmxFixture))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 1, nil)
	obs, err := client.FetchLatest(context.Background(), "AG_SRF_TOTL_K2")

	require.NoError(t, err)
	assert.Len(t, obs, 2)
	assert.Equal(t, 2, calls)
}

func TestFetchLatestMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not sdmx</html>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 0, nil)
	_, err := client.FetchLatest(context.Background(), "AG_SRF_TOTL_K2")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceParseError))
}

func TestParseObservationsMissingRefArea(t *testing.T) {
	body := `{"structure":{"dimensions":{"observation":[{"id":"FREQ","values":[{"id":"A"}]}]}},"dataSets":[]}`
	_, err := parseObservations([]byte(body))
	require.Error(t, err)
}

func TestParseObservationsSkipsEmptyCells(t *testing.T) {
	body := `{
	  "structure": {"dimensions": {"observation": [
	    {"id": "REF_AREA", "values": [{"id": "AUS"}]},
	    {"id": "TIME_PERIOD", "values": [{"id": "2020"}]}
	  ]}},
	  "dataSets": [{"observations": {"0:0": []}}]
	}`
	obs, err := parseObservations([]byte(body))
	require.NoError(t, err)
	assert.Empty(t, obs)
}
