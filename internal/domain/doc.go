// Package domain decodes the Skywatcher weather feed into a normalized,
// region-keyed forecast.
//
// # Data Source
//
// The feed is published by an upstream collector as a single JSON document per
// poll. Each poll describes the weather of every map area for the current
// weather window and the windows around it:
//
//	{
//	  "hour": 14, "minute": 20, "left_hour": 1, "left_minute": 40,
//	  "data": [
//	    {"time": -1, "area": 1, "weather": 1, "html": "<td>..</td>"},
//	    {"time":  0, "area": 1, "weather": 7, "html": "<td>..</td>"}
//	  ]
//	}
//
// Only "hour" and the per-record "time", "area" and "weather" fields are used.
// "html" is presentation markup for the upstream site and is never decoded, so
// it cannot leak into any output.
//
// # Feed Conventions
//
// Slot index:
//
//	"time" is indexed from -1: -1 is the current weather window, 0..3 are the
//	next four windows. Decoding shifts it by one to produce slots 0..4.
//	A shifted value outside 0..4 is a feed format regression and is reported as
//	a [*SlotIndexError]; it is never clamped.
//
// Area codes:
//
//	1-24 in the upstream numbering. 8 (Wolves' Den Pier) and 16 (Ul'dah) have
//	no fishing holes and resolve to no region; records for them are dropped.
//	Unknown codes are dropped the same way.
//
// Weather codes:
//
//	1-18, CLEAR through GLOOM. Unknown codes leave the slot unset.
//
// Companion regions:
//
//	Limsa Lominsa Upper Decks shares weather with Lower Decks (area 1) and Old
//	Gridania with New Gridania (area 10). The feed only reports the canonical
//	area; decoding stores the very same [*ForecastTimeline] under the companion
//	key. Consumers must treat a decoded report as read-only.
//
// # Eorzea Time
//
// The game clock runs 3600/175 times faster than real time and weather changes
// at Eorzea hours 0, 8 and 16. See [EorzeaTime] and [UpcomingWeather].
package domain
