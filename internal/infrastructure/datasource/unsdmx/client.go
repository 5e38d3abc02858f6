// Package unsdmx implements the indicator.SeriesSource contract against the
// UN statistics division SDMX REST API, which serves the Worldbank world
// development indicators as dataflow DF_UNDATA_WDI.
package unsdmx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/domain/indicator"
	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

// dataflow is the WDI dataflow identifier on the UN endpoint.
const dataflow = "DF_UNDATA_WDI"

// Client fetches annual indicator series restricted to the most recent
// observation per country.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	log        logging.Logger
}

// NewClient builds a Client against baseURL (e.g. "http://data.un.org/WS/rest").
// retries is the number of additional attempts after a failed request.
func NewClient(baseURL string, timeout time.Duration, retries int, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		log:        log.Named("unsdmx"),
	}
}

// FetchLatest implements indicator.SeriesSource.  The request is keyed by
// {frequency=annual, series code, all regions} and parameterized to return
// only the most recent observation per region.
func (c *Client) FetchLatest(ctx context.Context, seriesCode string) ([]indicator.Observation, error) {
	url := fmt.Sprintf(
		"%s/data/%s/A.%s./?lastNObservations=1&dimensionAtObservation=AllDimensions&format=sdmx-json",
		c.baseURL, dataflow, seriesCode,
	)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	obs, err := parseObservations(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceParseError,
			"malformed SDMX-JSON response").WithDetail(seriesCode)
	}

	c.log.Debug("fetched indicator series",
		logging.String("series", seriesCode),
		logging.Int("observations", len(obs)),
	)
	return obs, nil
}

// get performs a GET with bounded retries.  Failures propagate as SRC_001
// after the attempt budget is exhausted.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "indicator fetch cancelled")
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warn("indicator fetch attempt failed",
				logging.Int("attempt", attempt+1),
				logging.Err(err),
			)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			continue
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}
		return body, nil
	}

	return nil, errors.Wrap(lastErr, errors.ErrCodeDataSourceUnavailable,
		"indicator fetch failed after retries").WithDetail(url)
}

// sdmxResponse mirrors the subset of the SDMX-JSON layout the pipeline needs:
// the observation-level dimensions and the flat observation map keyed by
// colon-joined dimension indices.
type sdmxResponse struct {
	Structure struct {
		Dimensions struct {
			Observation []sdmxDimension `json:"observation"`
		} `json:"dimensions"`
	} `json:"structure"`
	DataSets []struct {
		Observations map[string][]json.Number `json:"observations"`
	} `json:"dataSets"`
}

type sdmxDimension struct {
	ID     string `json:"id"`
	Values []struct {
		ID string `json:"id"`
	} `json:"values"`
}

// parseObservations flattens the multi-level-indexed SDMX table to (country,
// period, value) triples.
func parseObservations(body []byte) ([]indicator.Observation, error) {
	var resp sdmxResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	dims := resp.Structure.Dimensions.Observation
	areaDim, timeDim := -1, -1
	for i, d := range dims {
		switch d.ID {
		case "REF_AREA":
			areaDim = i
		case "TIME_PERIOD":
			timeDim = i
		}
	}
	if areaDim < 0 {
		return nil, fmt.Errorf("response lacks a REF_AREA dimension")
	}

	var obs []indicator.Observation
	for _, ds := range resp.DataSets {
		for key, cell := range ds.Observations {
			if len(cell) == 0 {
				continue
			}
			parts := strings.Split(key, ":")
			if areaDim >= len(parts) {
				return nil, fmt.Errorf("observation key %q has fewer dimensions than the structure", key)
			}

			country, err := dimValue(dims, areaDim, parts[areaDim])
			if err != nil {
				return nil, err
			}
			period := ""
			if timeDim >= 0 && timeDim < len(parts) {
				if period, err = dimValue(dims, timeDim, parts[timeDim]); err != nil {
					return nil, err
				}
			}

			value, err := cell[0].Float64()
			if err != nil {
				return nil, fmt.Errorf("observation %q has a non-numeric value: %w", key, err)
			}
			obs = append(obs, indicator.Observation{
				Country: economy.CountryCode(country),
				Period:  period,
				Value:   value,
			})
		}
	}

	// The observation map is unordered; sort so the downstream table order is
	// deterministic run to run.
	sort.Slice(obs, func(i, j int) bool {
		if obs[i].Country != obs[j].Country {
			return obs[i].Country < obs[j].Country
		}
		return obs[i].Period < obs[j].Period
	})
	return obs, nil
}

func dimValue(dims []sdmxDimension, dim int, rawIndex string) (string, error) {
	var idx int
	if _, err := fmt.Sscanf(rawIndex, "%d", &idx); err != nil {
		return "", fmt.Errorf("observation key index %q is not numeric", rawIndex)
	}
	if idx < 0 || idx >= len(dims[dim].Values) {
		return "", fmt.Errorf("observation index %d out of range for dimension %s", idx, dims[dim].ID)
	}
	return dims[dim].Values[idx].ID, nil
}
