// Package cli is the debug console spec.md §6 names: a line-oriented
// command table read from an io.ReadWriter (a UART stand-in, the same
// "any ReadWriter" framing the teacher's transport package applies to
// the radio link), tokenized with google/shlex so arguments can carry
// quoted spaces the way a real shell line would. Commands are plain
// func(args []string) string handlers in a flat map, the same
// table-driven dispatch shape norasector-turbine uses for its HTTP
// routes, adapted to a line protocol instead of HTTP.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"
	"github.com/rs/zerolog"
)

// Handler executes one command, returning the text written back to
// the console.
type Handler func(args []string) string

// Console is the line-oriented debug command dispatcher.
type Console struct {
	rw       io.ReadWriter
	commands map[string]Handler
	log      zerolog.Logger
}

// New builds an empty Console over rw. RegisterCommands installs the concrete
// commands spec.md §6 names (debugOnUSB, printPicture, command2Camera,
// readLog, printConfig, send_aprs_message, test_rx); wiring them
// requires the concrete collaborators (camera, collector, config,
// radio) so that happens at the call site, not here.
func New(rw io.ReadWriter, log zerolog.Logger) *Console {
	return &Console{rw: rw, commands: make(map[string]Handler), log: log.With().Str("component", "cli").Logger()}
}

// Register installs or overrides a command handler.
func (c *Console) Register(name string, h Handler) {
	c.commands[name] = h
}

// Serve reads one line at a time from rw, dispatches it, and writes
// the handler's response back, until rw's reader returns io.EOF or an
// error.
func (c *Console) Serve() error {
	scanner := bufio.NewScanner(c.rw)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.dispatch(line)
	}
	return scanner.Err()
}

// Dispatch executes a single line and returns its handler's output,
// for callers (like tests) that don't want to drive Serve's loop.
func (c *Console) Dispatch(line string) string {
	return c.dispatch(line)
}

func (c *Console) dispatch(line string) string {
	tokens, err := shlex.Split(line)
	if err != nil || len(tokens) == 0 {
		reply := fmt.Sprintf("ERR_SYNTAX: %v", err)
		c.write(reply)
		return reply
	}

	name, args := tokens[0], tokens[1:]
	h, ok := c.commands[name]
	if !ok {
		reply := "ERR_UNKNOWN_COMMAND: " + name
		c.write(reply)
		return reply
	}

	reply := h(args)
	c.write(reply)
	return reply
}

func (c *Console) write(s string) {
	if _, err := fmt.Fprintln(c.rw, s); err != nil {
		c.log.Warn().Err(err).Msg("console write failed")
	}
}
