package client

import (
	"periph.io/x/conn/v3/physic"

	"gossp/core"
)

// Reading is the firmware's barometer state.
type Reading struct {
	Altitude      physic.Distance
	VerticalSpeed float64 // m/s
	SeaLevel      physic.Pressure
	Temperature   physic.Temperature
}

func (r Reading) String() string {
	return "altitude " + r.Altitude.String() +
		", sea level " + r.SeaLevel.String() +
		", " + r.Temperature.String()
}

func readingFrom(resp Response) Reading {
	return Reading{
		Altitude:      core.FromMillimetres(int32(resp.Get("altitude"))),
		VerticalSpeed: float64(resp.Get("vspeed")) / 1000,
		SeaLevel:      core.FromPascals(uint32(resp.Get("sea_level"))),
		Temperature:   core.FromCentiCelsius(int32(resp.Get("temp"))),
	}
}

// Clock returns the firmware's system tick counter.
func (c *Client) Clock() (uint32, error) {
	resp, err := c.Call("get_clock", nil, "clock", c.Timeout())
	if err != nil {
		return 0, err
	}
	return uint32(resp.Get("clock")), nil
}

// LinkStatus returns the firmware's link counters.
func (c *Client) LinkStatus() (core.LinkStatus, error) {
	resp, err := c.Call("get_link_status", nil, "link_status", c.Timeout())
	if err != nil {
		return core.LinkStatus{}, err
	}
	return core.LinkStatus{
		Frames:    uint32(resp.Get("frames")),
		CRCErrors: uint32(resp.Get("crc_errors")),
		Drained:   uint32(resp.Get("drained")),
		Timeouts:  uint32(resp.Get("timeouts")),
	}, nil
}

// ConfigureSeaLevel sets the firmware's sea-level reference pressure.
func (c *Client) ConfigureSeaLevel(p physic.Pressure) error {
	return c.Send("config_baro", int64(core.Pascals(p)))
}

// Sample feeds a pressure and temperature reading to the firmware.
func (c *Client) Sample(p physic.Pressure, t physic.Temperature) error {
	return c.Send("baro_sample", int64(core.Pascals(p)), int64(core.CentiCelsius(t)))
}

// Baro returns the firmware's barometer state.
func (c *Client) Baro() (Reading, error) {
	resp, err := c.Call("get_baro", nil, "baro_state", c.Timeout())
	if err != nil {
		return Reading{}, err
	}
	return readingFrom(resp), nil
}

// Calibrate tells the firmware its current altitude.
func (c *Client) Calibrate(altitude physic.Distance) (Reading, error) {
	resp, err := c.Call("baro_calibrate", []int64{int64(core.Millimetres(altitude))}, "baro_state", c.Timeout())
	if err != nil {
		return Reading{}, err
	}
	return readingFrom(resp), nil
}

// Forecast asks for the expected conditions at altitude.
func (c *Client) Forecast(altitude physic.Distance) (physic.Env, error) {
	resp, err := c.Call("baro_forecast", []int64{int64(core.Millimetres(altitude))}, "baro_forecast_result", c.Timeout())
	if err != nil {
		return physic.Env{}, err
	}
	return physic.Env{
		Pressure:    core.FromPascals(uint32(resp.Get("pressure"))),
		Temperature: core.FromCentiCelsius(int32(resp.Get("temp"))),
	}, nil
}
