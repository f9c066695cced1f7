package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergev/zoetrope/channel"
	"github.com/sergev/zoetrope/transport"
)

func newTestConsole(t *testing.T) (*console, *syncBuffer) {
	t.Helper()
	logger := zerolog.Nop()
	ch := channel.New(transport.NewLoopback(), channel.Options{PollInterval: time.Millisecond, Logger: &logger})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ch.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		ch.Close()
	})

	out := &syncBuffer{}
	return &console{ch: ch, out: out}, out
}

func TestConsoleDebugAcknowledged(t *testing.T) {
	c, out := newTestConsole(t)

	require.NoError(t, c.execute("debug 4"))
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(
			"DEBUG_SEGMENT 0004000000000000 queued\nDEBUG_SEGMENT 0004000000000000 acknowledged\n",
			out.String())
	}, 5*time.Second, time.Millisecond)
}

func TestConsoleModeAcknowledged(t *testing.T) {
	c, out := newTestConsole(t)

	require.NoError(t, c.execute("MODE 3 0xff"))
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(
			"ANIMATION_MODE 0103ff0000000000 queued\nANIMATION_MODE 0103ff0000000000 acknowledged\n",
			out.String())
	}, 5*time.Second, time.Millisecond)
}

func TestConsoleState(t *testing.T) {
	c, out := newTestConsole(t)

	require.NoError(t, c.execute("state"))
	assert.Equal(t, "Pending: none\nLast received: none\n", out.String())
}

func TestConsoleErrors(t *testing.T) {
	c, _ := newTestConsole(t)

	assert.NoError(t, c.execute("   "))
	assert.ErrorContains(t, c.execute("blink"), `unknown command "blink"`)
	assert.ErrorContains(t, c.execute("debug"), "usage: debug SEGMENT")
	assert.ErrorContains(t, c.execute("debug 1 2"), "usage: debug SEGMENT")
	assert.ErrorContains(t, c.execute("debug 300"), "must be 0..255")
	assert.ErrorContains(t, c.execute("mode"), "usage: mode")
	assert.ErrorIs(t, c.execute("mode 1 2 3 4 5 6 7 8"), channel.ErrFrameOverflow)
	assert.ErrorIs(t, c.execute("quit"), errQuit)
	assert.ErrorIs(t, c.execute("exit"), errQuit)
}

func TestConsoleHelp(t *testing.T) {
	c, out := newTestConsole(t)

	require.NoError(t, c.execute("help"))
	for _, name := range []string{"debug SEGMENT", "mode MODE [BYTE...]", "state", "help", "quit"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestComplete(t *testing.T) {
	assert.Equal(t, []string{"debug"}, complete("de"))
	assert.Equal(t, []string{"debug", "help", "mode", "quit", "state"}, complete(""))
	assert.Nil(t, complete("x"))
}
