package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sergev/zoetrope/channel"
	"github.com/sergev/zoetrope/ledmap"
)

// statusListen is how long status watches the controller for frames
var statusListen = 200 * time.Millisecond

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and controller state",
	Long: `Show the selected profile and serial settings, and check whether the
LED controller can be opened. Frames the controller sends while status
is listening are reported.`,
	Args: cobra.NoArgs,
	// The controller is optional here
	PersistentPreRunE: initConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Configuration script: %s\n", conf.Path)
		fmt.Fprintf(out, "Profile: %s\n", profile.Name)
		g := profile.Geometry()
		fmt.Fprintf(out, "Geometry: %d LEDs per strip, %d loop(s)", g.LedsPerStrip, g.Loops)
		if g.ExtensionStrip != ledmap.NoExtension {
			fmt.Fprintf(out, ", extension strip at segment %d", g.ExtensionStrip)
		}
		fmt.Fprintf(out, "\n")
		if profile.Wiring != "" {
			fmt.Fprintf(out, "Wiring table: %s\n", profile.Wiring)
		}
		fmt.Fprintf(out, "Serial: %s\n", conf.Serial)

		switch timeout := conf.ChannelOptions().AckTimeout; {
		case timeout < 0:
			fmt.Fprintf(out, "Acknowledgment timeout: none\n")
		case timeout == 0:
			fmt.Fprintf(out, "Acknowledgment timeout: %s\n", channel.DefaultAckTimeout)
		default:
			fmt.Fprintf(out, "Acknowledgment timeout: %s\n", timeout)
		}

		if err := openDevice(); err != nil {
			fmt.Fprintf(out, "Controller: %v\n", err)
			return nil
		}
		fmt.Fprintf(out, "Controller: %s\n", device)

		ctx, cancel := context.WithTimeout(cmd.Context(), statusListen)
		defer cancel()
		ch, stop := startChannel(ctx)
		<-ctx.Done()
		stop()

		if s := ch.State(); s.LastReceived != nil {
			fmt.Fprintf(out, "Last received frame: %s\n", s.LastReceived)
		} else {
			fmt.Fprintf(out, "Last received frame: none\n")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
