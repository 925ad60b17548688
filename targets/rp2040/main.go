//go:build rp2040

package main

import (
	"machine"
	"time"

	"gossp/core"
)

// Status polls per wait while flushing responses to the master.
const flushPolls = 200000

func main() {
	InitUSB()
	UpdateSystemTime()

	machine.UART0.Configure(machine.UARTConfig{BaudRate: 115200})
	core.SetDebugWriter(func(s string) {
		machine.UART0.Write([]byte(s + "\r\n"))
	})
	core.InitAsyncDebug()

	sspCSn.Configure(machine.PinConfig{Mode: machine.PinSPI})
	if err := core.InitSSP1(newPL022(), rpSystem{}, rpIRQ{}, sspConfig()); err != nil {
		core.SetDebugEnabled(true)
		for {
			core.DebugPrintln("[SSP] init failed: " + err.Error())
			time.Sleep(time.Second)
		}
	}

	reg := core.GetGlobalRegistry()
	link := core.NewSSPLink(core.SSP1(), reg, flushPolls)
	core.InitLinkCommands(link, core.DefaultBaro())
	if err := link.Start(); err != nil {
		core.DebugPrintln("[LINK] start: " + err.Error())
	}

	usb := newUSBLink(reg)
	sensor := newBaroSensor()

	for {
		UpdateSystemTime()

		link.Poll()
		if err := link.Flush(); err != nil {
			core.DebugAsync("[LINK] flush: " + err.Error())
			core.DumpEventRing()
		}

		usb.poll()
		sensor.poll()

		time.Sleep(10 * time.Microsecond)
	}
}
