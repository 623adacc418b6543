package controller

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"i4.energy/across/plotctl/wire"
)

// Controller is the command-ingestion front end for a two-axis stepper
// plotter reachable over a byte-oriented serial link. It owns the transport:
// the Loop is the only reader, feeding every received byte into the wire
// parser and handing each completed command to the configured Machine.
type Controller struct {
	// transport provides the physical connection to the plotter (serial,
	// TCP emulator, test fake).
	transport Transport
	// machine consumes completed commands and performs semantic checks.
	machine Machine
	// parser accumulates the pending command across received bytes.
	parser *wire.Parser

	logger *slog.Logger

	// closed indicates the controller has been shut down.
	closed bool
	// loopRunning indicates the Loop is currently active.
	loopRunning bool

	// injects carries command lines submitted via Send into the Loop.
	injects chan string
	// events publishes applied commands to subscribers.
	events chan Event

	// loopCtx controls the lifecycle of the main event loop.
	loopCtx context.Context
	// loopCancel cancels the main event loop.
	loopCancel context.CancelFunc
}

// Event describes one successfully applied command together with the machine
// state snapshot taken right after it.
type Event struct {
	Command wire.Command
	State   MachineState
}

// New creates a Controller with the given configuration. It establishes the
// transport connection and announces readiness to the host. Returns an error
// if the transport cannot be established or the ready line cannot be
// written.
func New(ctx context.Context, config Config) (*Controller, error) {
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	c := &Controller{
		transport: transport,
		machine:   config.Machine,
		logger:    config.Logger,
		parser:    wire.NewParser(config.Logger.With("component", "parser")),
		injects:   make(chan string),
		events:    make(chan Event, config.EventBuffer),
	}

	// Prepare context for Loop (but don't start it yet)
	c.loopCtx, c.loopCancel = context.WithCancel(ctx)

	initCtx := ctx
	if config.InitTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, config.InitTimeout)
		defer cancel()
	}

	if err := c.init(initCtx); err != nil {
		transport.Close()
		return nil, fmt.Errorf("initialize controller: %w", err)
	}

	return c, nil
}

// init announces readiness to the host. The plotter protocol has no
// handshake beyond this single line; the host may start sending commands as
// soon as it sees it.
func (c *Controller) init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.transport.Write([]byte(wire.RespReady + wire.CRLF)); err != nil {
		return fmt.Errorf("write ready line: %w", err)
	}
	return nil
}

// Loop is the main event loop that handles all transport I/O. It must be
// called exactly once after New, typically in a goroutine, and runs until
// the context is cancelled, the controller is closed, or the transport
// fails. It is the ONLY goroutine
// reading from the transport, which keeps byte ordering strict: the parser
// sees bytes exactly in arrival order, one at a time.
//
// Command lines submitted via Send are interleaved between received bytes at
// line granularity.
func (c *Controller) Loop(ctx context.Context) error {
	if c.loopRunning {
		return ErrLoopRunning
	}
	c.loopRunning = true
	defer func() {
		c.loopRunning = false
	}()

	reader := bufio.NewReader(c.transport)

	// Channels for received bytes and errors from the reader goroutine
	bytes := make(chan byte, 256)
	readErrs := make(chan error, 1)

	go func() {
		defer close(bytes)
		for {
			b, err := reader.ReadByte()
			if err != nil {
				if err != io.EOF {
					select {
					case readErrs <- err:
					case <-ctx.Done():
					case <-c.loopCtx.Done():
					}
				}
				return
			}
			select {
			case bytes <- b:
			case <-ctx.Done():
				return
			case <-c.loopCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-c.loopCtx.Done():
			// Close cancels loopCtx; stop even when the caller's context
			// is still live.
			return c.loopCtx.Err()

		case line := <-c.injects:
			for i := 0; i < len(line); i++ {
				c.feed(ctx, line[i])
			}
			c.feed(ctx, wire.CR)

		case b, ok := <-bytes:
			if !ok {
				// Byte channel closed - transport reached EOF
				return io.EOF
			}
			c.feed(ctx, b)

		case err := <-readErrs:
			return fmt.Errorf("read error: %w", err)
		}
	}
}

// feed advances the parser by one byte and consumes the pending record the
// moment it becomes valid, so a following command can never overwrite an
// unconsumed one.
func (c *Controller) feed(ctx context.Context, b byte) {
	c.parser.Feed(b)

	pending := c.parser.Pending()
	if !pending.Valid {
		return
	}
	cmd := *pending
	c.parser.Reset()

	if err := c.machine.Apply(ctx, cmd); err != nil {
		c.logger.Warn("command rejected", "op", string(cmd.Op), "error", err)
		c.reply(wire.RespErr)
		return
	}

	state := c.machine.State()
	switch cmd.Op {
	case wire.OpStatus:
		c.reply(fmt.Sprintf("%s %d,%d", wire.RespPos, state.X, state.Y))
	case wire.OpMoveX, wire.OpMoveY, wire.OpGoTo, wire.OpHome, wire.OpAutoCal:
		// Commands that move the head report the position they ended at.
		c.reply(wire.RespOK)
		c.reply(fmt.Sprintf("%s %d,%d", wire.RespPos, state.X, state.Y))
	default:
		c.reply(wire.RespOK)
	}

	select {
	case c.events <- Event{Command: cmd, State: state}:
	default:
		// Event buffer full - drop rather than stall the loop
	}
}

// reply writes one response line to the host.
func (c *Controller) reply(line string) {
	if _, err := c.transport.Write([]byte(line + wire.CRLF)); err != nil {
		c.logger.Warn("write reply failed", "error", err)
	}
}

// Send queues one command line toward the parser, as if the host had sent it
// over the serial link followed by a line terminator. It blocks until the
// Loop picks the line up or the context ends; the Loop must be running.
func (c *Controller) Send(ctx context.Context, line string) error {
	if c.closed {
		return ErrAlreadyClosed
	}
	if c.transport == nil {
		return ErrNotInitialized
	}

	select {
	case c.injects <- line:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("command not accepted: %w", ctx.Err())
	}
}

// Events returns a read-only channel of applied commands. The channel is
// buffered, but events may be dropped if not consumed fast enough.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// State returns the machine's current state snapshot.
func (c *Controller) State() MachineState {
	return c.machine.State()
}

// Close shuts down the controller and releases all resources. It stops the
// event loop and closes the transport. After Close the controller cannot be
// reused.
func (c *Controller) Close() error {
	if c.closed {
		return ErrAlreadyClosed
	}

	c.closed = true

	if c.loopCancel != nil {
		c.loopCancel()
	}

	if c.transport != nil {
		return c.transport.Close()
	}

	return nil
}
