package domain

// WeatherCondition identifies a named weather condition. The zero value means
// the slot carries no condition.
type WeatherCondition string

const (
	Clear         WeatherCondition = "CLEAR"
	Fair          WeatherCondition = "FAIR"
	Overcast      WeatherCondition = "OVERCAST"
	Fog           WeatherCondition = "FOG"
	Wind          WeatherCondition = "WIND"
	Gales         WeatherCondition = "GALES"
	Rain          WeatherCondition = "RAIN"
	Showers       WeatherCondition = "SHOWERS"
	Thunder       WeatherCondition = "THUNDER"
	Thunderstorms WeatherCondition = "THUNDERSTORMS"
	DustStorms    WeatherCondition = "DUST_STORMS"
	Sandstorms    WeatherCondition = "SANDSTORMS"
	HotSpells     WeatherCondition = "HOT_SPELLS"
	HeatWave      WeatherCondition = "HEAT_WAVE"
	Snow          WeatherCondition = "SNOW"
	Blizzards     WeatherCondition = "BLIZZARDS"
	Aurora        WeatherCondition = "AURORA"
	Gloom         WeatherCondition = "GLOOM"
)

var conditionCodes = map[int]WeatherCondition{
	1:  Clear,
	2:  Fair,
	3:  Overcast,
	4:  Fog,
	5:  Wind,
	6:  Gales,
	7:  Rain,
	8:  Showers,
	9:  Thunder,
	10: Thunderstorms,
	11: DustStorms,
	12: Sandstorms,
	13: HotSpells,
	14: HeatWave,
	15: Snow,
	16: Blizzards,
	17: Aurora,
	18: Gloom,
}

var conditionsByName = func() map[WeatherCondition]struct{} {
	m := make(map[WeatherCondition]struct{}, len(conditionCodes))
	for _, c := range conditionCodes {
		m[c] = struct{}{}
	}
	return m
}()

// LookupCondition translates an upstream weather code.
func LookupCondition(code int) (WeatherCondition, bool) {
	c, ok := conditionCodes[code]
	return c, ok
}

// IsSet reports whether c holds a condition.
func (c WeatherCondition) IsSet() bool {
	return c != ""
}

func (c WeatherCondition) valid() bool {
	_, ok := conditionsByName[c]
	return ok
}
