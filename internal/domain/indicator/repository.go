package indicator

import "context"

// SeriesSource supplies raw indicator observations for one SDMX series code,
// restricted by the source to the most recent observation per country.
// Implementations live in the infrastructure layer (UN SDMX client, cached
// wrappers, test fakes).
type SeriesSource interface {
	FetchLatest(ctx context.Context, seriesCode string) ([]Observation, error)
}
