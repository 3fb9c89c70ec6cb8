package record

// Location is the static geographic and currency metadata attached to each
// indicator record.
type Location struct {
	DisplayName  string  `json:"display_name"`
	Country      string  `json:"country"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Region       string  `json:"region"`
	CurrencyPair string  `json:"currency_pair"`
}

// UnknownLocation is the sentinel joined to indicator codes that have no
// entry in the lookup table. The join is total: callers never see a failure
// for an unrecognized code.
var UnknownLocation = Location{
	DisplayName:  "Unknown",
	Country:      "Unknown",
	Region:       "Unknown",
	CurrencyPair: "Unknown",
}

var locations = map[string]Location{
	"DOLA-USD": {
		DisplayName:  "Dólar estadounidense (COP)",
		Country:      "Colombia",
		Latitude:     4.5709,
		Longitude:    -74.2973,
		Region:       "South America",
		CurrencyPair: "COP/USD",
	},
	"EURUSD=X": {
		DisplayName:  "Euro / Dólar estadounidense",
		Country:      "Eurozone",
		Latitude:     50.1109,
		Longitude:    8.6821,
		Region:       "Europe",
		CurrencyPair: "EUR/USD",
	},
	"CL=F": {
		DisplayName:  "Petróleo crudo WTI",
		Country:      "United States",
		Latitude:     29.7604,
		Longitude:    -95.3698,
		Region:       "North America",
		CurrencyPair: "USD",
	},
	"GC=F": {
		DisplayName:  "Oro (futuros)",
		Country:      "United States",
		Latitude:     40.7128,
		Longitude:    -74.006,
		Region:       "North America",
		CurrencyPair: "USD",
	},
}

// LocationFor returns the static metadata for an indicator code, or
// UnknownLocation when the code is not in the table.
func LocationFor(code string) Location {
	if loc, ok := locations[code]; ok {
		return loc
	}
	return UnknownLocation
}
