package baro

import "strings"

// Atmospheric pressure unit relations:
//
//	1 atm = 14.7 psi = 76 cm.Hg = 29.92 in.Hg = 1.01325 bar = 1013.25 mbar

// Unit is an atmospheric pressure unit.
type Unit uint8

const (
	HPa  Unit = iota // hectopascal, equal to mbar
	Pa               // pascal
	Bar              // bar
	PSI              // pounds per square inch
	CmHg             // centimetres of mercury
	InHg             // inches of mercury
)

// perAtmosphere holds how many of each unit make one standard atmosphere.
var perAtmosphere = [...]float64{
	HPa:  StandardSeaLevel,
	Pa:   StandardSeaLevel * 100,
	Bar:  1.01325,
	PSI:  14.7,
	CmHg: 76,
	InHg: 29.92,
}

var unitNames = [...]string{
	HPa:  "hPa",
	Pa:   "Pa",
	Bar:  "bar",
	PSI:  "psi",
	CmHg: "cmHg",
	InHg: "inHg",
}

func (u Unit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return "unknown"
}

// Convert converts a pressure value from one unit to another.
func Convert(v float64, from, to Unit) float64 {
	if from == to {
		return v
	}
	return v / perAtmosphere[from] * perAtmosphere[to]
}

// ParseUnit returns the unit named s, case-insensitively. "mbar" is
// accepted for HPa.
func ParseUnit(s string) (Unit, bool) {
	if strings.EqualFold(s, "mbar") {
		return HPa, true
	}
	for u, name := range unitNames {
		if strings.EqualFold(s, name) {
			return Unit(u), true
		}
	}
	return 0, false
}
