package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SlotCount is the length of every forecast timeline: the current window plus
// four upcoming ones.
const SlotCount = 5

// ForecastTimeline holds one condition per weather window. Slot 0 is the
// current window. An unset slot has the zero WeatherCondition and serializes
// as null.
type ForecastTimeline [SlotCount]WeatherCondition

// MarshalJSON encodes the timeline as a fixed 5-element array.
func (t ForecastTimeline) MarshalJSON() ([]byte, error) {
	slots := make([]*WeatherCondition, SlotCount)
	for i := range t {
		if t[i].IsSet() {
			c := t[i]
			slots[i] = &c
		}
	}
	return json.Marshal(slots)
}

// UnmarshalJSON rejects arrays that are not exactly SlotCount long or that
// name an unknown condition.
func (t *ForecastTimeline) UnmarshalJSON(data []byte) error {
	var slots []*WeatherCondition
	if err := json.Unmarshal(data, &slots); err != nil {
		return fmt.Errorf("decode timeline: %w", err)
	}
	if len(slots) != SlotCount {
		return fmt.Errorf("decode timeline: want %d slots, got %d", SlotCount, len(slots))
	}
	var out ForecastTimeline
	for i, s := range slots {
		if s == nil {
			continue
		}
		if !s.valid() {
			return fmt.Errorf("decode timeline: unknown condition %q at slot %d", *s, i)
		}
		out[i] = *s
	}
	*t = out
	return nil
}

// WeatherReport is the normalized forecast for every region present in a feed.
//
// Companion regions map to the same *ForecastTimeline as their canonical
// region, so a report must be treated as read-only once decoded.
type WeatherReport struct {
	ID          string                       `json:"id,omitempty"`
	CurrentHour int                          `json:"current_hour"`
	Forecasts   map[Region]*ForecastTimeline `json:"forecasts"`
	ProcessedAt time.Time                    `json:"processed_at,omitzero"`
}

// Forecast returns the timeline for r, if the feed covered it.
func (r WeatherReport) Forecast(region Region) (*ForecastTimeline, bool) {
	t, ok := r.Forecasts[region]
	return t, ok
}

// emptyReport is the degraded result for an absent or unparseable feed.
func emptyReport() WeatherReport {
	return WeatherReport{Forecasts: map[Region]*ForecastTimeline{}}
}
