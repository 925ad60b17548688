package core

import (
	"math"

	"gossp/baro"
	"gossp/protocol"

	"periph.io/x/conn/v3/physic"
)

// BaroReading is a snapshot of the barometer state.
type BaroReading struct {
	Pressure      physic.Pressure
	Temperature   physic.Temperature
	SeaLevel      physic.Pressure
	Altitude      physic.Distance
	VerticalSpeed float64 // m/s, positive when climbing
	Valid         bool    // At least one sample seen
}

// BaroState turns pressure samples into altitude and vertical speed. It
// belongs to the main loop; do not feed it from interrupt context.
type BaroState struct {
	seaLevel physic.Pressure
	pressure physic.Pressure
	temp     physic.Temperature
	altitude physic.Distance
	vspeed   float64
	lastTick uint32
	valid    bool
}

// NewBaroState returns a state referenced to standard sea-level pressure.
func NewBaroState() *BaroState {
	return &BaroState{seaLevel: baro.FromHectoPascals(baro.StandardSeaLevel)}
}

// SetSeaLevel changes the reference pressure; the altitude of the last
// sample is recomputed.
func (b *BaroState) SetSeaLevel(p physic.Pressure) {
	b.seaLevel = p
	if b.valid {
		b.altitude = baro.Altitude(b.seaLevel, b.pressure, b.temp)
	}
}

// Sample records a reading taken now. From the second sample on the
// vertical speed is derived from the tick delta to the previous one.
func (b *BaroState) Sample(p physic.Pressure, t physic.Temperature) {
	now := GetTime()
	if b.valid {
		dt := float64(TimerToUS(now-b.lastTick)) / 1e6
		b.vspeed = baro.VerticalSpeed(baro.HectoPascals(b.seaLevel),
			baro.HectoPascals(b.pressure), baro.HectoPascals(p), baro.Celsius(t), dt)
	}
	b.pressure = p
	b.temp = t
	b.altitude = baro.Altitude(b.seaLevel, p, t)
	b.lastTick = now
	b.valid = true
}

// Calibrate sets the sea-level pressure so the last sample reads as
// altitude.
func (b *BaroState) Calibrate(altitude physic.Distance) error {
	if !b.valid {
		return ErrNoSample
	}
	b.seaLevel = baro.SeaLevel(altitude, b.pressure, b.temp)
	b.altitude = altitude
	return nil
}

// Forecast predicts temperature and pressure at dest from the last sample.
func (b *BaroState) Forecast(dest physic.Distance) (physic.Env, error) {
	if !b.valid {
		return physic.Env{}, ErrNoSample
	}
	env := physic.Env{Temperature: b.temp, Pressure: b.pressure}
	return baro.Forecast(b.seaLevel, env, b.altitude, dest), nil
}

// Reading returns the current state.
func (b *BaroState) Reading() BaroReading {
	return BaroReading{
		Pressure:      b.pressure,
		Temperature:   b.temp,
		SeaLevel:      b.seaLevel,
		Altitude:      b.altitude,
		VerticalSpeed: b.vspeed,
		Valid:         b.valid,
	}
}

var globalBaro = NewBaroState()

// DefaultBaro returns the board's barometer state.
func DefaultBaro() *BaroState {
	return globalBaro
}

// RecordBaroSample feeds a local sensor reading in wire units (Pa and
// hundredths of a degree) into the board's barometer state.
func RecordBaroSample(pa uint32, centiC int32) error {
	if pa == 0 {
		return ErrBadPressure
	}
	globalBaro.Sample(FromPascals(pa), FromCentiCelsius(centiC))
	return nil
}

// Wire unit conversions. Values outside the wire range saturate and NaN
// reads as zero.

func wireInt32(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(math.Round(v))
}

func wireUint32(v float64) uint32 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(math.Round(v))
}

func Pascals(p physic.Pressure) uint32 {
	return wireUint32(float64(p) / float64(physic.Pascal))
}

func FromPascals(pa uint32) physic.Pressure {
	return physic.Pressure(pa) * physic.Pascal
}

func CentiCelsius(t physic.Temperature) int32 {
	return wireInt32(baro.Celsius(t) * 100)
}

func FromCentiCelsius(c int32) physic.Temperature {
	return baro.FromCelsius(float64(c) / 100)
}

func Millimetres(d physic.Distance) int32 {
	return wireInt32(float64(d) / float64(physic.MilliMetre))
}

func FromMillimetres(mm int32) physic.Distance {
	return physic.Distance(mm) * physic.MilliMetre
}

func (b *BaroState) handleConfig(data *[]byte, _ *Responder) error {
	pa, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if pa == 0 {
		return ErrBadPressure
	}
	b.SetSeaLevel(FromPascals(pa))
	return nil
}

func (b *BaroState) handleSample(data *[]byte, _ *Responder) error {
	pa, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	temp, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	if pa == 0 {
		return ErrBadPressure
	}
	b.Sample(FromPascals(pa), FromCentiCelsius(temp))
	return nil
}

func (b *BaroState) handleGet(_ *[]byte, resp *Responder) error {
	return b.sendState(resp)
}

func (b *BaroState) handleCalibrate(data *[]byte, resp *Responder) error {
	mm, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	if err := b.Calibrate(FromMillimetres(mm)); err != nil {
		return err
	}
	return b.sendState(resp)
}

func (b *BaroState) handleForecast(data *[]byte, resp *Responder) error {
	mm, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	env, err := b.Forecast(FromMillimetres(mm))
	if err != nil {
		return err
	}
	return resp.Send("baro_forecast_result", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, Pascals(env.Pressure))
		protocol.EncodeVLQInt(output, CentiCelsius(env.Temperature))
	})
}

func (b *BaroState) sendState(resp *Responder) error {
	r := b.Reading()
	return resp.Send("baro_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQInt(output, Millimetres(r.Altitude))
		protocol.EncodeVLQInt(output, wireInt32(r.VerticalSpeed*1000))
		protocol.EncodeVLQUint(output, Pascals(r.SeaLevel))
		protocol.EncodeVLQInt(output, CentiCelsius(r.Temperature))
	})
}
