package search

// locationCodes maps ISO-3166 alpha-2 market codes to the task-poll SERP
// backend's numeric location codes (2000 + ISO-3166 numeric country code).
// "UK" is accepted as an alias for "GB".
var locationCodes = map[string]int{
	"AE": 2784,
	"AR": 2032,
	"AT": 2040,
	"AU": 2036,
	"BE": 2056,
	"BR": 2076,
	"CA": 2124,
	"CH": 2756,
	"CL": 2152,
	"CN": 2156,
	"CO": 2170,
	"CZ": 2203,
	"DE": 2276,
	"DK": 2208,
	"EG": 2818,
	"ES": 2724,
	"FI": 2246,
	"FR": 2250,
	"GB": 2826,
	"GR": 2300,
	"HK": 2344,
	"HU": 2348,
	"ID": 2360,
	"IE": 2372,
	"IL": 2376,
	"IN": 2356,
	"IT": 2380,
	"JP": 2392,
	"KE": 2404,
	"KR": 2410,
	"MX": 2484,
	"MY": 2458,
	"NG": 2566,
	"NL": 2528,
	"NO": 2578,
	"NZ": 2554,
	"PE": 2604,
	"PH": 2608,
	"PL": 2616,
	"PT": 2620,
	"RO": 2642,
	"SA": 2682,
	"SE": 2752,
	"SG": 2702,
	"SK": 2703,
	"TH": 2764,
	"TR": 2792,
	"UA": 2804,
	"UK": 2826,
	"US": 2840,
	"VN": 2704,
	"ZA": 2710,
}

// defaultLocationCode is used when a market has no table entry.
const defaultLocationCode = 2840 // US

// LocationCode resolves a market tag to the backend's location code.
func LocationCode(market string) int {
	if code, ok := locationCodes[market]; ok {
		return code
	}
	return defaultLocationCode
}
