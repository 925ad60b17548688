package core

import "gossp/protocol"

// CommandSpec is a message name and its argument format.
type CommandSpec struct {
	Name   string
	Format string
}

// LinkCommands is the message dictionary of the link. Ids are positions in
// this list, so host and firmware agree without exchanging it. Append
// only.
var LinkCommands = []CommandSpec{
	{"clock", "clock=%u"},
	{"get_clock", ""},
	{"link_status", "frames=%u crc_errors=%u drained=%u timeouts=%u"},
	{"get_link_status", ""},
	{"config_baro", "sea_level=%u"},
	{"baro_sample", "pressure=%u temp=%i"},
	{"baro_state", "altitude=%i vspeed=%i sea_level=%u temp=%i"},
	{"get_baro", ""},
	{"baro_calibrate", "altitude=%i"},
	{"baro_forecast", "altitude=%i"},
	{"baro_forecast_result", "pressure=%u temp=%i"},
}

// RegisterLinkCommands registers LinkCommands into reg in order, binding
// the handler of each name found in handlers. Names without a handler are
// responses. Hosts pass nil handlers to obtain the id table.
func RegisterLinkCommands(reg *CommandRegistry, handlers map[string]CommandHandler) *CommandRegistry {
	for _, spec := range LinkCommands {
		reg.Register(spec.Name, spec.Format, handlers[spec.Name])
	}
	return reg
}

// LinkStatus is the payload of the link_status response.
type LinkStatus struct {
	Frames    uint32
	CRCErrors uint32
	Drained   uint32
	Timeouts  uint32
}

// StatusSource reports link health.
type StatusSource interface {
	LinkStatus() LinkStatus
}

// LinkHandlers returns the firmware handlers of the link commands.
func LinkHandlers(status StatusSource, b *BaroState) map[string]CommandHandler {
	return map[string]CommandHandler{
		"get_clock": handleGetClock,
		"get_link_status": func(_ *[]byte, resp *Responder) error {
			return sendLinkStatus(resp, status.LinkStatus())
		},
		"config_baro":    b.handleConfig,
		"baro_sample":    b.handleSample,
		"get_baro":       b.handleGet,
		"baro_calibrate": b.handleCalibrate,
		"baro_forecast":  b.handleForecast,
	}
}

// InitLinkCommands registers the link commands into the global registry.
func InitLinkCommands(status StatusSource, b *BaroState) {
	RegisterLinkCommands(globalRegistry, LinkHandlers(status, b))
}

func handleGetClock(_ *[]byte, resp *Responder) error {
	clock := GetTime()
	return resp.Send("clock", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, clock)
	})
}

func sendLinkStatus(resp *Responder, s LinkStatus) error {
	return resp.Send("link_status", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, s.Frames)
		protocol.EncodeVLQUint(output, s.CRCErrors)
		protocol.EncodeVLQUint(output, s.Drained)
		protocol.EncodeVLQUint(output, s.Timeouts)
	})
}
