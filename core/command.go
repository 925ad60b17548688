package core

import (
	"strings"
	"sync"

	"gossp/protocol"
)

// CommandHandler handles one message. It decodes its own arguments from
// data and answers through resp.
type CommandHandler func(data *[]byte, resp *Responder) error

// Command is one entry of the message dictionary. Entries without a
// handler are responses sent by the firmware.
type Command struct {
	ID      uint16
	Name    string
	Format  string // e.g. "pressure=%u temp=%i"
	Handler CommandHandler
}

// Signature returns "name format", the form hosts parse.
func (c *Command) Signature() string {
	if c.Format == "" {
		return c.Name
	}
	return c.Name + " " + c.Format
}

// Args returns the number of arguments the format declares.
func (c *Command) Args() int {
	return strings.Count(c.Format, "%")
}

// CommandRegistry maps message ids, assigned in registration order, to
// commands.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands []*Command
	nameToID map[string]uint16
}

var globalRegistry = NewCommandRegistry()

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		nameToID: make(map[string]uint16),
	}
}

// Register adds a command and returns its id. Registering a known name
// returns the existing id and leaves the entry unchanged.
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := uint16(len(r.commands))
	r.commands = append(r.commands, &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	})
	r.nameToID[name] = id
	return id
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
}

// GetCommandByName retrieves a command by name
func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dictionary returns one signature per line in id order.
func (r *CommandRegistry) Dictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, cmd := range r.commands {
		sb.WriteString(cmd.Signature())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Dispatch calls the handler registered for cmdID.
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte, resp *Responder) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok || cmd.Handler == nil {
		return ErrUnknownCommand
	}
	return cmd.Handler(data, resp)
}

// Serve is a protocol.CommandHandler dispatching into the registry, with
// responses encoded on the transport the message arrived on.
func (r *CommandRegistry) Serve(t *protocol.Transport, cmdID uint16, data *[]byte) error {
	return r.Dispatch(cmdID, data, &Responder{t: t, reg: r})
}

// GetGlobalRegistry returns the global command registry
func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}

// Responder encodes responses by name.
type Responder struct {
	t   *protocol.Transport
	reg *CommandRegistry
}

// NewResponder returns a responder writing frames through t.
func NewResponder(t *protocol.Transport, reg *CommandRegistry) *Responder {
	return &Responder{t: t, reg: reg}
}

// Send encodes the named response as one frame. A nil responder or
// transport drops the response.
func (r *Responder) Send(name string, args func(output protocol.OutputBuffer)) error {
	if r == nil || r.t == nil {
		return nil
	}
	cmd, ok := r.reg.GetCommandByName(name)
	if !ok {
		return ErrUnknownResponse
	}
	r.t.SendCommand(cmd.ID, args)
	return nil
}
