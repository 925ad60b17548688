package baro

import "periph.io/x/conn/v3/physic"

// HectoPascals returns p in hPa.
func HectoPascals(p physic.Pressure) float64 {
	return float64(p) / float64(100*physic.Pascal)
}

// FromHectoPascals converts hPa to a physic.Pressure.
func FromHectoPascals(hpa float64) physic.Pressure {
	return physic.Pressure(hpa * float64(100*physic.Pascal))
}

// Celsius returns t in °C.
func Celsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Kelvin)
}

// FromCelsius converts °C to a physic.Temperature.
func FromCelsius(c float64) physic.Temperature {
	return physic.Temperature(c*float64(physic.Kelvin)) + physic.ZeroCelsius
}

// Metres returns d in metres.
func Metres(d physic.Distance) float64 {
	return float64(d) / float64(physic.Metre)
}

// FromMetres converts metres to a physic.Distance.
func FromMetres(m float64) physic.Distance {
	return physic.Distance(m * float64(physic.Metre))
}

// Altitude is AltitudeFromPressure on physic units.
func Altitude(seaLevel, atmospheric physic.Pressure, temp physic.Temperature) physic.Distance {
	return FromMetres(AltitudeFromPressure(HectoPascals(seaLevel), HectoPascals(atmospheric), Celsius(temp)))
}

// SeaLevel is SeaLevelFromAltitude on physic units.
func SeaLevel(altitude physic.Distance, atmospheric physic.Pressure, temp physic.Temperature) physic.Pressure {
	return FromHectoPascals(SeaLevelFromAltitude(Metres(altitude), HectoPascals(atmospheric), Celsius(temp)))
}

// Forecast predicts the temperature and pressure at dest given a reading
// env taken at altitude from, and the current sea-level pressure.
func Forecast(seaLevel physic.Pressure, env physic.Env, from, dest physic.Distance) physic.Env {
	t := TempAtDestination(Celsius(env.Temperature), Metres(from), Metres(dest))
	p := PressureAtDestination(HectoPascals(seaLevel), t, Metres(dest))
	return physic.Env{
		Temperature: FromCelsius(t),
		Pressure:    FromHectoPascals(p),
		Humidity:    env.Humidity,
	}
}
