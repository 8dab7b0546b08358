package thingtalk

import (
	"fmt"
	"strings"

	"github.com/alecthomas/units"
)

// The unit ontology.  Every unit maps to the base unit of its dimension
// and a multiplier into that base unit.  Measure types are compatible when
// their base units agree; values are normalized by multiplying into the
// base unit.
type unitDef struct {
	base  string
	scale float64
}

var unitTable = map[string]unitDef{
	// duration, base ms
	"ms":   {"ms", 1},
	"s":    {"ms", 1000},
	"min":  {"ms", 60 * 1000},
	"h":    {"ms", 3600 * 1000},
	"day":  {"ms", 86400 * 1000},
	"week": {"ms", 7 * 86400 * 1000},
	"mon":  {"ms", 30 * 86400 * 1000},
	"year": {"ms", 365 * 86400 * 1000},

	// length, base m
	"m":  {"m", 1},
	"km": {"m", 1000},
	"mm": {"m", 1e-3},
	"cm": {"m", 1e-2},
	"mi": {"m", 1609.344},
	"in": {"m", 0.0254},
	"ft": {"m", 0.3048},

	// speed, base mps
	"mps":  {"mps", 1},
	"kmph": {"mps", 0.27777778},
	"mph":  {"mps", 0.44704},

	// mass, base kg
	"kg": {"kg", 1},
	"g":  {"kg", 1e-3},
	"lb": {"kg", 0.45359237},
	"oz": {"kg", 0.028349523},

	// temperature, base C; F and K scale linearly and offset at
	// normalization time
	"C": {"C", 1},
	"F": {"C", 0.55555556},
	"K": {"C", 1},

	// pressure, base Pa
	"Pa":   {"Pa", 1},
	"bar":  {"Pa", 100000},
	"psi":  {"Pa", 6894.7573},
	"mmHg": {"Pa", 133.32239},
	"inHg": {"Pa", 3386.3886},
	"atm":  {"Pa", 101325},

	// energy, base kcal
	"kcal": {"kcal", 1},
	"kJ":   {"kcal", 0.239006},

	// power, base W
	"W":  {"W", 1},
	"kW": {"W", 1000},

	// illuminance, base lx
	"lx": {"lx", 1},

	// sound level, base dB
	"dB":  {"dB", 1},
	"dBm": {"dB", 1},
}

// BaseUnit returns the canonical base unit of u, or u itself when the unit
// is unknown so that exotic units still compare by equality.  The byte
// family (KB, MiB, ...) normalizes to "byte".
func BaseUnit(u string) string {
	if def, ok := unitTable[u]; ok {
		return def.base
	}
	if u == "byte" || isByteUnit(u) {
		return "byte"
	}
	return u
}

// IsUnit reports whether u names a known unit.
func IsUnit(u string) bool {
	if _, ok := unitTable[u]; ok {
		return true
	}
	return u == "byte" || isByteUnit(u)
}

// NormalizeUnit converts value expressed in unit u to the base unit of its
// dimension.  Unknown units pass through unchanged.
func NormalizeUnit(value float64, u string) float64 {
	switch u {
	case "F":
		return (value - 32) / 1.8
	case "K":
		return value - 273.15
	}
	if def, ok := unitTable[u]; ok {
		return value * def.scale
	}
	if n, ok := byteScale(u); ok {
		return value * n
	}
	return value
}

func isByteUnit(u string) bool {
	_, ok := byteScale(u)
	return ok
}

// byteScale resolves the byte-size family through the units package, which
// understands both metric (KB, MB) and IEC (KiB, MiB) suffixes.
func byteScale(u string) (float64, bool) {
	if u == "" || strings.ContainsAny(u, "0123456789") {
		return 0, false
	}
	if strings.HasSuffix(u, "iB") {
		n, err := units.ParseBase2Bytes("1" + u)
		if err != nil {
			return 0, false
		}
		return float64(n), true
	}
	if strings.HasSuffix(u, "B") && u != "B" {
		n, err := units.ParseMetricBytes("1" + u)
		if err != nil {
			return 0, false
		}
		return float64(n), true
	}
	return 0, false
}

// ParseUnit validates u and returns its base unit.
func ParseUnit(u string) (string, error) {
	if !IsUnit(u) {
		return "", fmt.Errorf("invalid unit %q", u)
	}
	return BaseUnit(u), nil
}
