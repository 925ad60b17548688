// Package baro converts between atmospheric pressure, altitude and
// temperature using the international barometric formula.
//
// Pressures are in hectopascal (hPa, equal to mbar), altitudes in metres and
// temperatures in degrees Celsius. None of the functions validate their
// input: a zero or negative absolute pressure yields NaN or Inf.
package baro

import "math"

// Model constants of the international barometric formula.
const (
	// LapseRate is the temperature gradient of the troposphere in °C/m.
	LapseRate = 0.0065

	// ZeroCelsius is 0 °C expressed in kelvin.
	ZeroCelsius = 273.15

	// PressureExponent is g·M/(R·L) for the standard atmosphere.
	PressureExponent = 5.257

	// AltitudeExponent is 1/PressureExponent as used by the hypsometric form.
	AltitudeExponent = 0.190223

	// StandardSeaLevel is the ISA sea-level pressure in hPa.
	StandardSeaLevel = 1013.25
)

// AltitudeFromPressure returns the altitude in metres at which atmospheric
// pressure is measured, given the sea-level pressure and the local
// temperature.
//
//	h = ((P0/P)^(1/5.257) - 1) * (T + 273.15) / 0.0065
func AltitudeFromPressure(seaLevel, atmospheric, temp float64) float64 {
	return (math.Pow(seaLevel/atmospheric, AltitudeExponent) - 1) * (temp + ZeroCelsius) / LapseRate
}

// SeaLevelFromAltitude returns the sea-level pressure in hPa for a pressure
// measured at a known altitude and temperature.
//
//	P0 = P * (1 - 0.0065*h / (T + 0.0065*h + 273.15)) ^ -5.257
func SeaLevelFromAltitude(altitude, atmospheric, temp float64) float64 {
	return atmospheric * math.Pow(1-(LapseRate*altitude)/(temp+LapseRate*altitude+ZeroCelsius), -PressureExponent)
}

// TempAtDestination returns the temperature expected at destAltitude given
// the temperature at currAltitude, assuming the standard lapse rate.
//
//	T = Ta - 0.0065 * (h - ha)
func TempAtDestination(currTemp, currAltitude, destAltitude float64) float64 {
	return currTemp - LapseRate*(destAltitude-currAltitude)
}

// PressureAtDestination returns the atmospheric pressure in hPa at
// destAltitude. destTemp is normally obtained from TempAtDestination first.
//
//	P = P0 * (1 - 0.0065*h / (T + 0.0065*h + 273.15)) ^ 5.257
func PressureAtDestination(seaLevel, destTemp, destAltitude float64) float64 {
	return seaLevel * math.Pow(1-(LapseRate*destAltitude)/(destTemp+LapseRate*destAltitude+ZeroCelsius), PressureExponent)
}

// VerticalSpeed returns the climb rate in m/s between two pressure readings
// taken dt seconds apart. Positive values mean the sensor is rising.
func VerticalSpeed(seaLevel, p0, p1, temp, dt float64) float64 {
	if dt == 0 {
		return 0
	}
	return (AltitudeFromPressure(seaLevel, p1, temp) - AltitudeFromPressure(seaLevel, p0, temp)) / dt
}
