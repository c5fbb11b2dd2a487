package weather

// ConditionUnknown is reported for any weather code outside the table.
const ConditionUnknown = "Unknown"

// WMO weather interpretation codes as reported by Open-Meteo.
var conditionByCode = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// DescribeCondition maps a weather code to a human-readable description.
func DescribeCondition(code int) string {
	if desc, ok := conditionByCode[code]; ok {
		return desc
	}
	return ConditionUnknown
}
