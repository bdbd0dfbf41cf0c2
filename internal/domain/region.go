package domain

import "strings"

// Region identifies a fishable map area.
type Region string

const (
	LimsaLominsaLowerDecks   Region = "LIMSA_LOMINSA_LOWER_DECKS"
	LimsaLominsaUpperDecks   Region = "LIMSA_LOMINSA_UPPER_DECKS"
	MiddleLaNoscea           Region = "MIDDLE_LA_NOSCEA"
	LowerLaNoscea            Region = "LOWER_LA_NOSCEA"
	EasternLaNoscea          Region = "EASTERN_LA_NOSCEA"
	WesternLaNoscea          Region = "WESTERN_LA_NOSCEA"
	UpperLaNoscea            Region = "UPPER_LA_NOSCEA"
	OuterLaNoscea            Region = "OUTER_LA_NOSCEA"
	Mist                     Region = "MIST"
	NewGridania              Region = "NEW_GRIDANIA"
	OldGridania              Region = "OLD_GRIDANIA"
	CentralShroud            Region = "CENTRAL_SHROUD"
	EastShroud               Region = "EAST_SHROUD"
	SouthShroud              Region = "SOUTH_SHROUD"
	NorthShroud              Region = "NORTH_SHROUD"
	LavenderBeds             Region = "LAVENDER_BEDS"
	WesternThanalan          Region = "WESTERN_THANALAN"
	CentralThanalan          Region = "CENTRAL_THANALAN"
	EasternThanalan          Region = "EASTERN_THANALAN"
	SouthernThanalan         Region = "SOUTHERN_THANALAN"
	NorthernThanalan         Region = "NORTHERN_THANALAN"
	TheGoblet                Region = "THE_GOBLET"
	CoerthasCentralHighlands Region = "COERTHAS_CENTRAL_HIGHLANDS"
	MorDhona                 Region = "MOR_DHONA"
)

// regionCodes maps upstream area codes to canonical regions. Codes 8 (Wolves'
// Den Pier) and 16 (Ul'dah) are deliberately absent: nothing is fished there.
var regionCodes = map[int]Region{
	1:  LimsaLominsaLowerDecks,
	2:  MiddleLaNoscea,
	3:  LowerLaNoscea,
	4:  EasternLaNoscea,
	5:  WesternLaNoscea,
	6:  UpperLaNoscea,
	7:  OuterLaNoscea,
	9:  Mist,
	10: NewGridania,
	11: CentralShroud,
	12: EastShroud,
	13: SouthShroud,
	14: NorthShroud,
	15: LavenderBeds,
	17: WesternThanalan,
	18: CentralThanalan,
	19: EasternThanalan,
	20: SouthernThanalan,
	21: NorthernThanalan,
	22: TheGoblet,
	23: CoerthasCentralHighlands,
	24: MorDhona,
}

// companions lists regions addressed separately but sharing the canonical
// region's weather.
var companions = map[Region][]Region{
	LimsaLominsaLowerDecks: {LimsaLominsaUpperDecks},
	NewGridania:            {OldGridania},
}

// regionsByName indexes every known region, canonical or companion.
var regionsByName = func() map[string]Region {
	m := make(map[string]Region, len(regionCodes)+2)
	for _, r := range regionCodes {
		m[string(r)] = r
	}
	for _, cs := range companions {
		for _, r := range cs {
			m[string(r)] = r
		}
	}
	return m
}()

// LookupRegion translates an upstream area code. The boolean is false for codes
// with no fishable region.
func LookupRegion(code int) (Region, bool) {
	r, ok := regionCodes[code]
	return r, ok
}

// CompanionsOf returns the regions that share r's weather. The result must not
// be modified.
func CompanionsOf(r Region) []Region {
	return companions[r]
}

// ParseRegion resolves a region name case-insensitively, e.g. "mor_dhona".
func ParseRegion(name string) (Region, bool) {
	r, ok := regionsByName[strings.ToUpper(strings.TrimSpace(name))]
	return r, ok
}

