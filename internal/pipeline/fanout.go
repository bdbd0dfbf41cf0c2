package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/skywatcher-etl/internal/domain"
)

type fanOut []BatchLoader

// FanOut returns a BatchLoader that hands every batch to each loader in turn.
// A failing loader does not stop the others; their errors are joined.
func FanOut(loaders ...BatchLoader) BatchLoader {
	return fanOut(loaders)
}

func (f fanOut) LoadBatch(ctx context.Context, reports []domain.WeatherReport) error {
	var errs []error
	for _, l := range f {
		if err := l.LoadBatch(ctx, reports); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
