// Package atlas queries the Observatory of Economic Complexity atlas JSON
// API.  The estimation core does not depend on it; it is an auxiliary data
// source exposed through the trade CLI command.
package atlas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
)

// Query parameterizes one path-templated atlas request.  Zero values map to
// the API wildcards: empty Origin/Destination become "all", empty Product
// becomes "show", a zero Year defaults to two calendar years back (the most
// recent year the atlas has consolidated data for).
type Query struct {
	Model       string // e.g. "hs07"
	Export      bool   // true for export flows, false for import
	Year        int
	Origin      string
	Destination string
	Product     string
}

func (q Query) path() string {
	model := q.Model
	if model == "" {
		model = "hs07"
	}
	direction := "import"
	if q.Export {
		direction = "export"
	}
	year := q.Year
	if year == 0 {
		year = time.Now().Year() - 2
	}
	segment := func(v, wildcard string) string {
		if v == "" {
			return wildcard
		}
		return v
	}
	return fmt.Sprintf("/%s/%s/%d/%s/%s/%s/",
		model, direction, year,
		segment(q.Origin, "all"),
		segment(q.Destination, "all"),
		segment(q.Product, "show"),
	)
}

// Client is a thin wrapper over the atlas HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logging.Logger
}

// NewClient builds a Client against baseURL (e.g. "http://atlas.media.mit.edu").
func NewClient(baseURL string, timeout time.Duration, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("atlas"),
	}
}

// Trade executes the query and returns the decoded JSON document.
func (c *Client) Trade(ctx context.Context, q Query) (map[string]interface{}, error) {
	url := c.baseURL + q.path()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build atlas request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceUnavailable,
			"atlas request failed").WithDetail(url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeDataSourceUnavailable,
			"atlas returned status %d", resp.StatusCode).WithDetail(url)
	}

	var doc map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceParseError,
			"atlas response is not valid JSON").WithDetail(url)
	}

	c.log.Debug("atlas query completed", logging.String("path", q.path()))
	return doc, nil
}
