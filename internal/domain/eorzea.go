package domain

import "time"

const (
	// Eorzea time runs 3600/175 times faster than real time; 144/7 keeps the
	// millisecond product well inside int64.
	eorzeaNumerator   = 144
	eorzeaDenominator = 7

	// weatherWindowHours is the length of one weather window in Eorzea hours.
	weatherWindowHours = 8

	// upcomingWindows is how many windows UpcomingWeather looks at.
	upcomingWindows = 4
)

// EorzeaTime converts a real instant to the in-game clock, in UTC.
func EorzeaTime(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli() * eorzeaNumerator / eorzeaDenominator).UTC()
}

// CurrentEorzeaHour returns the fractional in-game hour, e.g. 14.5 for 14:30.
func CurrentEorzeaHour() float64 {
	et := EorzeaTime(clock.Now())
	return float64(et.Hour()) + float64(et.Minute())/60.0
}

// nextWeatherChangeHour returns the Eorzea hour at which the current weather
// window ends.
func nextWeatherChangeHour(hour float64) int {
	switch {
	case hour < 8:
		return 8
	case hour < 16:
		return 16
	default:
		return 24
	}
}

// UpcomingWeather selects the conditions that are still current or ahead of
// the player. A report published reportHour Eorzea hours into the day may be
// one or two windows stale by eorzeaHour, so the windows that already passed
// are skipped. Unset slots are dropped before the stale windows are counted,
// so the offset applies to the known conditions only.
func UpcomingWeather(t *ForecastTimeline, reportHour int, eorzeaHour float64) []WeatherCondition {
	if t == nil {
		return nil
	}

	next := nextWeatherChangeHour(eorzeaHour)
	var offset int
	switch {
	case reportHour >= next-weatherWindowHours:
		offset = 0
	case reportHour >= next-2*weatherWindowHours:
		offset = 1
	default:
		offset = 2
	}

	known := make([]WeatherCondition, 0, SlotCount)
	for _, c := range t {
		if c.IsSet() {
			known = append(known, c)
		}
	}
	if offset >= len(known) {
		return []WeatherCondition{}
	}
	return known[offset:min(offset+upcomingWindows, len(known))]
}
