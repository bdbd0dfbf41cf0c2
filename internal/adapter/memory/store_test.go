package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/couchcryptid/skywatcher-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeReport(t *testing.T, hour int, records ...domain.RawFeedRecord) domain.WeatherReport {
	t.Helper()
	report, err := domain.Decode(&domain.RawFeed{CurrentHour: hour, Records: records})
	require.NoError(t, err)
	return report
}

func TestReportStore_Empty(t *testing.T) {
	s := NewReportStore()

	_, ok := s.Latest()
	assert.False(t, ok)

	_, _, ok = s.Forecast(domain.MorDhona)
	assert.False(t, ok)

	require.NoError(t, s.LoadBatch(context.Background(), nil))
	_, ok = s.Latest()
	assert.False(t, ok)
}

func TestReportStore_KeepsLastOfBatch(t *testing.T) {
	s := NewReportStore()
	first := decodeReport(t, 8, domain.RawFeedRecord{SlotIndex: -1, RegionCode: 24, ConditionCode: 18})
	second := decodeReport(t, 16, domain.RawFeedRecord{SlotIndex: -1, RegionCode: 1, ConditionCode: 2})

	require.NoError(t, s.LoadBatch(context.Background(), []domain.WeatherReport{first, second}))

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 16, latest.CurrentHour)

	timeline, hour, ok := s.Forecast(domain.LimsaLominsaUpperDecks)
	require.True(t, ok)
	assert.Equal(t, 16, hour)
	assert.Equal(t, domain.Fair, timeline[0])

	_, _, ok = s.Forecast(domain.MorDhona)
	assert.False(t, ok, "regions from older reports are not served")
}

func TestReportStore_ConcurrentAccess(t *testing.T) {
	s := NewReportStore()
	report := decodeReport(t, 0, domain.RawFeedRecord{SlotIndex: 0, RegionCode: 10, ConditionCode: 7})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.LoadBatch(context.Background(), []domain.WeatherReport{report})
		}()
		go func() {
			defer wg.Done()
			s.Forecast(domain.OldGridania)
		}()
	}
	wg.Wait()

	timeline, _, ok := s.Forecast(domain.OldGridania)
	require.True(t, ok)
	assert.Equal(t, domain.Rain, timeline[1])
}
