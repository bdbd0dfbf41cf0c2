package domain

import "encoding/json"

// RawFeedRecord is one (area, window) entry of the upstream feed.
type RawFeedRecord struct {
	SlotIndex     int `json:"time"` // -1 is the current window
	RegionCode    int `json:"area"`
	ConditionCode int `json:"weather"`
}

// RawFeed is the deserialized upstream document. Minute, LeftHour and
// LeftMinute are carried for callers; decoding only reads CurrentHour and
// Records.
type RawFeed struct {
	CurrentHour int             `json:"hour"`
	Minute      int             `json:"minute"`
	LeftHour    int             `json:"left_hour"`
	LeftMinute  int             `json:"left_minute"`
	Records     []RawFeedRecord `json:"data"`
}

// rawFeedDocument distinguishes a missing "data" array from an empty one.
type rawFeedDocument struct {
	Hour       int              `json:"hour"`
	Minute     int              `json:"minute"`
	LeftHour   int              `json:"left_hour"`
	LeftMinute int              `json:"left_minute"`
	Data       *[]RawFeedRecord `json:"data"`
}

// ParseRawFeed deserializes feed text. It fails soft: malformed JSON, fields of
// the wrong type or a missing "data" array all yield nil rather than an error.
func ParseRawFeed(data []byte) *RawFeed {
	var doc rawFeedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	if doc.Data == nil {
		return nil
	}
	return &RawFeed{
		CurrentHour: doc.Hour,
		Minute:      doc.Minute,
		LeftHour:    doc.LeftHour,
		LeftMinute:  doc.LeftMinute,
		Records:     *doc.Data,
	}
}
