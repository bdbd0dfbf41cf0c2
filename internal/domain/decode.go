package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrMalformedFeed marks feed text that could not be deserialized. Decode
// itself never returns it; callers that refuse to publish the degraded empty
// report use it to say why.
var ErrMalformedFeed = errors.New("malformed weather feed")

// SlotIndexError reports a record whose shifted slot index falls outside the
// timeline. It means the upstream feed format changed, so the whole decode is
// rejected.
type SlotIndexError struct {
	Region  Region
	RawSlot int
}

func (e *SlotIndexError) Error() string {
	return fmt.Sprintf("slot index out of range: region %s raw time %d (slot %d, want 0..%d)",
		e.Region, e.RawSlot, e.RawSlot+1, SlotCount-1)
}

// Decode normalizes a raw feed into a WeatherReport.
//
// A nil feed yields an empty report with hour 0. Records for unknown areas are
// skipped and unknown weather codes leave their slot unset. Records are applied
// in feed order, so a later record for the same region and window wins. The
// only failure is a slot index outside the timeline, in which case no report is
// returned.
func Decode(raw *RawFeed) (WeatherReport, error) {
	if raw == nil {
		return emptyReport(), nil
	}

	forecasts := make(map[Region]*ForecastTimeline)
	for _, rec := range raw.Records {
		region, ok := LookupRegion(rec.RegionCode)
		if !ok {
			continue
		}

		timeline, ok := forecasts[region]
		if !ok {
			timeline = new(ForecastTimeline)
		}

		// The feed indexes windows from -1.
		slot := rec.SlotIndex + 1
		if slot < 0 || slot >= SlotCount {
			return WeatherReport{}, &SlotIndexError{Region: region, RawSlot: rec.SlotIndex}
		}

		// Unknown codes overwrite with the unset value, like any other write.
		condition, _ := LookupCondition(rec.ConditionCode)
		timeline[slot] = condition

		forecasts[region] = timeline
		for _, companion := range CompanionsOf(region) {
			forecasts[companion] = timeline
		}
	}

	return WeatherReport{
		CurrentHour: raw.CurrentHour,
		Forecasts:   forecasts,
	}, nil
}

// StampReport assigns a decoded report its identity and processing time.
// The ID is derived from the raw payload, so replaying the same feed produces
// the same ID.
func StampReport(report WeatherReport, payload []byte) WeatherReport {
	report.ID = reportID(payload)
	report.ProcessedAt = clock.Now().UTC()
	return report
}

// PayloadDigest returns the hex sha256 of a raw feed payload.
func PayloadDigest(payload []byte) string {
	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:])
}

func reportID(payload []byte) string {
	return "report-" + PayloadDigest(payload)[:16]
}
