package memory

import (
	"context"
	"sync"

	"github.com/couchcryptid/skywatcher-etl/internal/domain"
)

// ReportStore keeps the most recent weather report for the query API.
// It implements pipeline.BatchLoader.
type ReportStore struct {
	mu     sync.RWMutex
	latest *domain.WeatherReport
}

func NewReportStore() *ReportStore {
	return &ReportStore{}
}

// LoadBatch keeps the last report of the batch. Reports are never modified
// after decoding, so the store shares them with readers without copying.
func (s *ReportStore) LoadBatch(_ context.Context, reports []domain.WeatherReport) error {
	if len(reports) == 0 {
		return nil
	}
	latest := reports[len(reports)-1]

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = &latest
	return nil
}

// Latest returns the most recent report, if any has been stored.
func (s *ReportStore) Latest() (domain.WeatherReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return domain.WeatherReport{}, false
	}
	return *s.latest, true
}

// Forecast returns the latest timeline for a region together with the hour of
// the report it came from.
func (s *ReportStore) Forecast(region domain.Region) (domain.ForecastTimeline, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return domain.ForecastTimeline{}, 0, false
	}
	timeline, ok := s.latest.Forecast(region)
	if !ok {
		return domain.ForecastTimeline{}, 0, false
	}
	return *timeline, s.latest.CurrentHour, true
}
