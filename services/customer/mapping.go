package customer

import "strings"

// countryMapping maps a locally-coded country to the provider's ISO-3166
// alpha-3 code and its subdivisions to the provider's short codes.
// Unmapped subdivisions are omitted from the payload rather than guessed.
type countryMapping struct {
	Alpha3       string
	Subdivisions map[string]string
}

var countryMappings = map[string]countryMapping{
	"bolivia": {
		Alpha3: "BOL",
		Subdivisions: map[string]string{
			"chuquisaca": "H",
			"cochabamba": "C",
			"el beni":    "B",
			"beni":       "B",
			"la paz":     "L",
			"oruro":      "O",
			"pando":      "N",
			"potosí":     "P",
			"potosi":     "P",
			"santa cruz": "S",
			"tarija":     "T",
		},
	},
	"el salvador": {
		Alpha3: "SLV",
		Subdivisions: map[string]string{
			"san salvador": "SS",
			"la libertad":  "LI",
			"santa ana":    "SA",
			"san miguel":   "SM",
			"sonsonate":    "SO",
		},
	},
	"panama": {
		Alpha3: "PAN",
		Subdivisions: map[string]string{
			"panamá":   "8",
			"panama":   "8",
			"colón":    "3",
			"colon":    "3",
			"chiriquí": "4",
			"chiriqui": "4",
		},
	},
	"mexico": {
		Alpha3: "MEX",
		Subdivisions: map[string]string{
			"ciudad de méxico": "CMX",
			"ciudad de mexico": "CMX",
			"jalisco":          "JAL",
			"nuevo león":       "NLE",
			"nuevo leon":       "NLE",
		},
	},
	"argentina": {
		Alpha3: "ARG",
		Subdivisions: map[string]string{
			"buenos aires": "B",
			"córdoba":      "X",
			"cordoba":      "X",
			"santa fe":     "S",
			"mendoza":      "M",
		},
	},
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MapCountry maps a locally-coded country name to the provider's 3-letter
// code
func MapCountry(country string) (string, bool) {
	m, ok := countryMappings[normalize(country)]
	if !ok {
		return "", false
	}
	return m.Alpha3, true
}

// MapSubdivision maps a subdivision name within a country to the provider's
// short code. Unknown subdivisions report false and are omitted by callers.
func MapSubdivision(country, subdivision string) (string, bool) {
	m, ok := countryMappings[normalize(country)]
	if !ok {
		return "", false
	}
	code, ok := m.Subdivisions[normalize(subdivision)]
	return code, ok
}
