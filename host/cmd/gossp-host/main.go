// Command gossp-host is an interactive console for the barometric link
// firmware, connected over its USB serial port.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"gossp/baro"
	"gossp/core"
	"gossp/host/client"
	"gossp/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	timeout = flag.Duration("timeout", time.Second, "Response timeout")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	c, err := client.Open(cfg)
	if err != nil {
		glog.Exitf("connect: %v", err)
	}
	defer c.Close()
	c.SetTimeout(*timeout)

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "quit", "exit", "q":
			return
		case "help", "?":
			printHelp()
		default:
			if err := run(c, parts[0], parts[1:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		glog.Exitf("reading input: %v", err)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  clock                   - Read the firmware clock")
	fmt.Println("  status                  - Link counters")
	fmt.Println("  sealevel <hPa>          - Set sea-level pressure")
	fmt.Println("  sample <hPa> <degC>     - Feed a reading")
	fmt.Println("  baro                    - Barometer state")
	fmt.Println("  calibrate <m>           - Set current altitude")
	fmt.Println("  forecast <m>            - Conditions at altitude")
	fmt.Println("  convert <v> <from> <to> - Convert pressure units (hPa, Pa, bar, psi, cmHg, inHg)")
	fmt.Println("  quit/exit/q             - Exit the program")
	fmt.Println()
}

func run(c *client.Client, cmd string, args []string) error {
	nums, err := parseFloats(cmd, args)
	if err != nil {
		return err
	}

	switch cmd {
	case "clock":
		clock, err := c.Clock()
		if err != nil {
			return err
		}
		fmt.Printf("clock=%d (%.3fs)\n", clock, float64(clock)/core.TimerFreq)

	case "status":
		s, err := c.LinkStatus()
		if err != nil {
			return err
		}
		fmt.Printf("frames=%d crc_errors=%d drained=%d timeouts=%d\n", s.Frames, s.CRCErrors, s.Drained, s.Timeouts)

	case "sealevel":
		if err := want(cmd, nums, 1); err != nil {
			return err
		}
		return c.ConfigureSeaLevel(baro.FromHectoPascals(nums[0]))

	case "sample":
		if err := want(cmd, nums, 2); err != nil {
			return err
		}
		return c.Sample(baro.FromHectoPascals(nums[0]), baro.FromCelsius(nums[1]))

	case "baro":
		r, err := c.Baro()
		if err != nil {
			return err
		}
		fmt.Printf("%v, vspeed %.2fm/s\n", r, r.VerticalSpeed)

	case "calibrate":
		if err := want(cmd, nums, 1); err != nil {
			return err
		}
		r, err := c.Calibrate(baro.FromMetres(nums[0]))
		if err != nil {
			return err
		}
		fmt.Println(r)

	case "forecast":
		if err := want(cmd, nums, 1); err != nil {
			return err
		}
		env, err := c.Forecast(baro.FromMetres(nums[0]))
		if err != nil {
			return err
		}
		fmt.Printf("%.2f hPa, %.2f°C\n", baro.HectoPascals(env.Pressure), baro.Celsius(env.Temperature))

	case "convert":
		return convert(args)

	default:
		return fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
	return nil
}

func convert(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("convert takes <value> <from> <to>")
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return err
	}
	from, ok := baro.ParseUnit(args[1])
	if !ok {
		return fmt.Errorf("unknown unit %q", args[1])
	}
	to, ok := baro.ParseUnit(args[2])
	if !ok {
		return fmt.Errorf("unknown unit %q", args[2])
	}
	fmt.Printf("%g %v = %.4f %v\n", v, from, baro.Convert(v, from, to), to)
	return nil
}

// parseFloats parses numeric arguments; convert parses its own.
func parseFloats(cmd string, args []string) ([]float64, error) {
	if cmd == "convert" {
		return nil, nil
	}
	nums := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad number %q", cmd, a)
		}
		nums[i] = v
	}
	return nums, nil
}

func want(cmd string, nums []float64, n int) error {
	if len(nums) != n {
		return fmt.Errorf("%s takes %d arguments", cmd, n)
	}
	return nil
}
