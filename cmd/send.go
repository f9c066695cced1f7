package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sergev/zoetrope/channel"
)

// startChannel opens a channel on the device and polls it in the
// background. The returned stop function ends polling and closes the device.
func startChannel(ctx context.Context) (*channel.Channel, func()) {
	ch := newChannel()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ch.Run(ctx)
	}()
	return ch, func() {
		cancel()
		<-done
		ch.Close()
	}
}

// sendCommand sends one command and waits for the controller to echo it
func sendCommand(cmd *cobra.Command, op channel.Opcode, args []int) error {
	ctx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stopSignals()

	ch, stop := startChannel(ctx)
	defer stop()

	c, err := ch.BuildCommand(op, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sending %s frame %s to %s\n", op, c.Frame(), device)

	if err := c.Wait(ctx); err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	fmt.Fprintf(out, "Command acknowledged.\n")
	return nil
}

// parseByte accepts decimal, 0x hex, 0o octal or 0b binary values up to 255
func parseByte(s string) (int, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte value %q: must be 0..255", s)
	}
	return int(v), nil
}
