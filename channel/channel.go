// Package channel sends diagnostic command frames to the LED controller and
// recognises their acknowledgment. The controller has no ACK opcode: it
// echoes every frame it receives, and a byte-exact echo of the pending frame
// confirms it.
package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sergev/zoetrope/transport"
)

const (
	DefaultAckTimeout   = 2 * time.Second
	DefaultPollInterval = 10 * time.Millisecond
)

var (
	ErrCommandTimedOut = errors.New("command was not acknowledged in time")
	ErrSuperseded      = errors.New("command superseded by a newer command")
	ErrClosed          = errors.New("channel closed")
)

// Options tune a Channel. Zero values select the defaults.
type Options struct {
	// AckTimeout is how long a command may wait for its echo, counted from
	// the write, or from queueing while the write has not happened.
	// Negative disables the timeout.
	AckTimeout time.Duration

	// PollInterval is the tick period of Run
	PollInterval time.Duration

	// Logger defaults to the global zerolog logger
	Logger *zerolog.Logger

	// Now defaults to time.Now
	Now func() time.Time
}

// Channel drives one transport. At most one command is in flight: building a
// new command supersedes the pending one.
//
// BuildCommand may be called from any goroutine; DriveCycle and Run must be
// called from a single polling goroutine.
type Channel struct {
	t            transport.Transport
	ackTimeout   time.Duration
	pollInterval time.Duration
	log          zerolog.Logger
	now          func() time.Time

	mu           sync.Mutex
	pending      *Command
	lastReceived *Frame
	generation   uint64
	closed       bool

	rbuf [PadSize]byte
}

// State is a snapshot of the acknowledgment state
type State struct {
	Pending      *Frame // frame awaiting its echo, nil when idle
	AwaitingAck  bool
	Sent         bool   // pending frame has been written
	LastReceived *Frame // most recent frame read from the transport
}

// New creates a Channel owning t
func New(t transport.Transport, opts Options) *Channel {
	c := &Channel{
		t:            t,
		ackTimeout:   opts.AckTimeout,
		pollInterval: opts.PollInterval,
		now:          opts.Now,
	}
	if c.ackTimeout == 0 {
		c.ackTimeout = DefaultAckTimeout
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.now == nil {
		c.now = time.Now
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	} else {
		c.log = log.Logger
	}
	c.log = c.log.With().Str("component", "channel").Logger()
	return c
}

// BuildCommand builds a frame and makes it the pending command. A previous
// command still awaiting its echo completes with ErrSuperseded.
// Invalid arguments are rejected before any state changes.
func (c *Channel) BuildCommand(op Opcode, args []int) (*Command, error) {
	frame, err := BuildFrame(op, args)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if old := c.pending; old != nil {
		c.log.Debug().Str("command", old.id).Str("frame", old.frame.String()).Msg("command superseded")
		old.finish(ErrSuperseded)
	}
	c.generation++
	cmd := newCommand(frame, c.generation)
	cmd.queuedAt = c.now()
	c.pending = cmd

	c.log.Debug().Str("command", cmd.id).Str("frame", frame.String()).Msg("command queued")
	return cmd, nil
}

// Send builds a command and waits for its acknowledgment.
// Run must be active on another goroutine.
func (c *Channel) Send(ctx context.Context, op Opcode, args []int) error {
	cmd, err := c.BuildCommand(op, args)
	if err != nil {
		return err
	}
	return cmd.Wait(ctx)
}

// OnBytesReceived takes the first PadSize bytes of buf as the last received
// frame. Shorter buffers are ignored and false is returned. A frame equal
// to the pending one acknowledges it.
func (c *Channel) OnBytesReceived(buf []byte) bool {
	if len(buf) < PadSize {
		return false
	}
	var f Frame
	copy(f[:], buf[:PadSize])

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastReceived = &f
	if cmd := c.pending; cmd != nil && cmd.frame == f {
		c.pending = nil
		cmd.finish(nil)
		c.log.Debug().Str("command", cmd.id).Str("frame", f.String()).Msg("command acknowledged")
		return true
	}
	c.log.Debug().Str("frame", f.String()).Msg("frame received")
	return true
}

// DriveCycle performs one polling tick: it consumes every complete frame the
// transport holds, writes a pending command that was not written yet, and
// expires a command whose echo is overdue. Transport errors are returned;
// the next tick starts afresh. Expiry runs even when the transport fails.
func (c *Channel) DriveCycle() error {
	defer c.expire()

	if err := c.receive(); err != nil {
		return err
	}
	return c.transmit()
}

// receive reads whole frames only; a partial frame stays in the transport
// until the rest arrives. Bytes arriving during the cycle wait for the next.
func (c *Channel) receive() error {
	avail, pollErr := c.t.Buffered()
	for ; avail >= PadSize; avail -= PadSize {
		if _, err := io.ReadFull(c.t, c.rbuf[:]); err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}
		c.OnBytesReceived(c.rbuf[:])
	}
	if pollErr != nil {
		return fmt.Errorf("failed to poll transport: %w", pollErr)
	}
	return nil
}

// transmit writes the pending frame once. A partial write counts as written:
// repeating it would misalign the stream, so the timeout frees the slot.
func (c *Channel) transmit() error {
	c.mu.Lock()
	cmd := c.pending
	if cmd == nil || cmd.sent {
		c.mu.Unlock()
		return nil
	}
	frame, gen := cmd.frame, cmd.generation
	c.mu.Unlock()

	n, err := c.t.Write(frame[:])
	if n > 0 || err == nil {
		c.mu.Lock()
		if c.pending != nil && c.pending.generation == gen {
			cmd.sent = true
			cmd.sentAt = c.now()
			c.log.Debug().Str("command", cmd.id).Str("frame", frame.String()).Int("bytes", n).Msg("command written")
		}
		c.mu.Unlock()
	}
	if err != nil {
		return fmt.Errorf("failed to write command %s: %w", cmd.id, err)
	}
	return nil
}

// expire fails a command whose echo is overdue. An unwritten command is
// timed from the moment it was queued.
func (c *Channel) expire() {
	if c.ackTimeout < 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := c.pending
	if cmd == nil {
		return
	}
	since := cmd.queuedAt
	if cmd.sent {
		since = cmd.sentAt
	}
	if c.now().Sub(since) < c.ackTimeout {
		return
	}
	c.pending = nil
	cmd.finish(fmt.Errorf("%w after %s", ErrCommandTimedOut, c.ackTimeout))
	c.log.Warn().Str("command", cmd.id).Str("frame", cmd.frame.String()).Bool("written", cmd.sent).Dur("timeout", c.ackTimeout).Msg("command timed out")
}

// Run calls DriveCycle every poll interval until ctx is done. Failed cycles
// are logged and retried on the next tick.
func (c *Channel) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var lastErr string
	for {
		if err := c.DriveCycle(); err != nil {
			// Log each distinct failure once; a dead port fails every tick
			if msg := err.Error(); msg != lastErr {
				c.log.Warn().Err(err).Msg("drive cycle failed")
				lastErr = msg
			}
		} else {
			lastErr = ""
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// State returns a snapshot of the acknowledgment state
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s State
	if cmd := c.pending; cmd != nil {
		f := cmd.frame
		s.Pending = &f
		s.AwaitingAck = true
		s.Sent = cmd.sent
	}
	if c.lastReceived != nil {
		f := *c.lastReceived
		s.LastReceived = &f
	}
	return s
}

// Close fails the pending command with ErrClosed and closes the transport
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if cmd := c.pending; cmd != nil {
		c.pending = nil
		cmd.finish(ErrClosed)
	}
	c.mu.Unlock()

	return c.t.Close()
}

// Command is a frame handed to the Channel, completed by its echo, a timeout,
// a newer command, or Close.
type Command struct {
	id         string
	frame      Frame
	generation uint64
	done       chan struct{}
	err        error

	// guarded by Channel.mu
	queuedAt time.Time
	sent     bool
	sentAt   time.Time
}

func newCommand(frame Frame, generation uint64) *Command {
	return &Command{
		id:         uuid.NewString(),
		frame:      frame,
		generation: generation,
		done:       make(chan struct{}),
	}
}

// finish is called once, with Channel.mu held
func (cmd *Command) finish(err error) {
	cmd.err = err
	close(cmd.done)
}

// ID identifies the command in log output
func (cmd *Command) ID() string { return cmd.id }

// Frame returns the bytes sent for the command
func (cmd *Command) Frame() Frame { return cmd.frame }

// Done is closed once the command completes
func (cmd *Command) Done() <-chan struct{} { return cmd.done }

// Err waits for completion and returns nil when the command was acknowledged
func (cmd *Command) Err() error {
	<-cmd.done
	return cmd.err
}

// Wait blocks until the command completes or ctx is done. Cancelling ctx
// does not withdraw the command.
func (cmd *Command) Wait(ctx context.Context) error {
	select {
	case <-cmd.done:
		return cmd.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
