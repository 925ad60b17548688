//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/bme280"

	"gossp/core"
)

const sampleIntervalUS = 100000

// baroSensor samples a BME280 on I2C0 (SDA GP4, SCL GP5) into the board's
// barometer state.
type baroSensor struct {
	dev  bme280.Device
	ok   bool
	next uint32
}

func newBaroSensor() *baroSensor {
	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		SDA:       machine.GP4,
		SCL:       machine.GP5,
		Frequency: 400 * machine.KHz,
	}); err != nil {
		core.DebugPrintln("[BARO] i2c: " + err.Error())
		return &baroSensor{}
	}

	dev := bme280.New(i2c)
	if !dev.Connected() {
		core.DebugPrintln("[BARO] no sensor, waiting for baro_sample from the link")
		return &baroSensor{}
	}
	dev.Configure()
	return &baroSensor{dev: dev, ok: true}
}

func (s *baroSensor) poll() {
	now := core.GetTime()
	if !s.ok || int32(now-s.next) < 0 {
		return
	}
	s.next = now + core.TimerFromUS(sampleIntervalUS)

	t, err := s.dev.ReadTemperature() // milli °C
	if err != nil {
		return
	}
	p, err := s.dev.ReadPressure() // milli Pa
	if err != nil {
		return
	}
	if err := core.RecordBaroSample(uint32(p/1000), t/10); err != nil {
		core.DebugAsync("[BARO] " + err.Error())
	}
}
