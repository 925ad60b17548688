// Package client talks to the firmware's command link from a host.
package client

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"gossp/core"
	"gossp/host/serial"
	"gossp/protocol"
)

var (
	ErrClosed   = errors.New("client: closed")
	ErrTimeout  = errors.New("client: timed out waiting for response")
	ErrArgCount = errors.New("client: wrong number of arguments")
)

// DefaultTimeout is used by the typed helpers.
const DefaultTimeout = time.Second

// Response is one decoded firmware message.
type Response struct {
	Name string
	Args map[string]int64
}

// Get returns the named argument, 0 when absent.
func (r Response) Get(name string) int64 {
	return r.Args[name]
}

// Client sends requests over a serial port and collects responses.
type Client struct {
	port    serial.Port
	reg     *core.CommandRegistry
	timeout atomic.Int64 // time.Duration of the typed helpers

	mu  sync.Mutex // serializes requests
	out *protocol.ScratchOutput
	tx  *protocol.Transport

	rx        *protocol.Transport
	responses chan Response

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// Open opens the serial device in cfg and starts a client on it.
func Open(cfg *serial.Config) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	glog.Infof("connected to %s", cfg.Device)
	return New(port), nil
}

// New starts a client on an open port. The client owns the port.
func New(port serial.Port) *Client {
	c := &Client{
		port:      port,
		reg:       core.RegisterLinkCommands(core.NewCommandRegistry(), nil),
		out:       protocol.NewScratchOutput(),
		responses: make(chan Response, 16),
		done:      make(chan struct{}),
	}
	c.timeout.Store(int64(DefaultTimeout))
	c.tx = protocol.NewTransport(c.out, nil)
	c.rx = protocol.NewTransport(protocol.NewScratchOutput(), c.handleResponse)

	c.wg.Add(1)
	go c.readLoop()
	return c
}

// SetTimeout changes the response timeout of the typed helpers. It may be
// called while a request is in flight; the new value applies to the next.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout.Store(int64(d))
}

// Timeout returns the response timeout of the typed helpers.
func (c *Client) Timeout() time.Duration {
	return time.Duration(c.timeout.Load())
}

// Close stops the reader and closes the port.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.port.Close()
		c.wg.Wait()
	})
	return err
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) readLoop() {
	defer c.wg.Done()

	buf := make([]byte, 512)
	var pending []byte
	for {
		n, err := c.port.Read(buf)
		if c.closed() {
			return
		}
		if n > 0 {
			pending = append(pending, buf[:n]...)
			in := protocol.NewSliceInputBuffer(pending)
			c.rx.Receive(in)
			pending = append(pending[:0], in.Data()...)
		}
		if err != nil && err != io.EOF {
			glog.Errorf("serial read: %v", err)
			return
		}
	}
}

// handleResponse decodes a message using the link dictionary.
func (c *Client) handleResponse(_ *protocol.Transport, cmdID uint16, data *[]byte) error {
	cmd, ok := c.reg.GetCommand(cmdID)
	if !ok {
		return fmt.Errorf("unknown message id %d", cmdID)
	}
	args, err := decodeArgs(cmd.Format, data)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}

	resp := Response{Name: cmd.Name, Args: args}
	glog.V(2).Infof("recv %s %v", resp.Name, resp.Args)
	select {
	case c.responses <- resp:
	default:
		glog.Warningf("response queue full, dropping %s", resp.Name)
	}
	return nil
}

// Send encodes and writes one command without waiting for a reply.
func (c *Client) Send(name string, args ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(name, args)
}

func (c *Client) send(name string, args []int64) error {
	if c.closed() {
		return ErrClosed
	}
	cmd, ok := c.reg.GetCommandByName(name)
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if len(args) != cmd.Args() {
		return fmt.Errorf("%s takes %d arguments, got %d: %w", name, cmd.Args(), len(args), ErrArgCount)
	}

	c.out.Reset()
	c.tx.SendCommand(cmd.ID, func(output protocol.OutputBuffer) {
		encodeArgs(output, cmd.Format, args)
	})
	if len(c.out.Result()) == 0 {
		return fmt.Errorf("%s: frame too long", name)
	}
	c.tx.Advance()

	glog.V(2).Infof("send %s %v", name, args)
	if _, err := c.port.Write(c.out.Result()); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Call sends a command and waits for the named response. Other messages
// arriving meanwhile are discarded.
func (c *Client) Call(name string, args []int64, response string, timeout time.Duration) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.drain()
	if err := c.send(name, args); err != nil {
		return Response{}, err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case resp := <-c.responses:
			if resp.Name == response {
				return resp, nil
			}
			glog.V(1).Infof("skipping %s while waiting for %s", resp.Name, response)
		case <-deadline.C:
			return Response{}, fmt.Errorf("%s: %w", name, ErrTimeout)
		case <-c.done:
			return Response{}, ErrClosed
		}
	}
}

func (c *Client) drain() {
	for {
		select {
		case <-c.responses:
		default:
			return
		}
	}
}

// encodeArgs writes args by the %u / %i types of format.
func encodeArgs(output protocol.OutputBuffer, format string, args []int64) {
	for i, field := range strings.Fields(format) {
		if strings.HasSuffix(field, "%i") {
			protocol.EncodeVLQInt(output, int32(args[i]))
		} else {
			protocol.EncodeVLQUint(output, uint32(args[i]))
		}
	}
}

// decodeArgs reads the fields of format, keyed by name.
func decodeArgs(format string, data *[]byte) (map[string]int64, error) {
	args := make(map[string]int64)
	for _, field := range strings.Fields(format) {
		name, typ, ok := strings.Cut(field, "=")
		if !ok {
			return nil, fmt.Errorf("bad format field %q", field)
		}
		v, err := protocol.DecodeVLQInt(data)
		if err != nil {
			return nil, err
		}
		if typ == "%u" {
			args[name] = int64(uint32(v))
		} else {
			args[name] = int64(v)
		}
	}
	return args, nil
}
