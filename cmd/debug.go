package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sergev/zoetrope/channel"
	"github.com/sergev/zoetrope/ledmap"
)

var debugReverse bool

var debugCmd = &cobra.Command{
	Use:   "debug SEGMENT",
	Short: "Light one wiring segment",
	Long: `Ask the LED controller to light one wiring segment, and wait until
the controller echoes the command back.
The addresses the segment occupies are printed for reference.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		segment, err := parseByte(args[0])
		if err != nil {
			return err
		}

		leds, err := ledmap.TranslateSegment(profile.Geometry(), !debugReverse, segment)
		if err != nil {
			return err
		}
		direction := "forward"
		if debugReverse {
			direction = "reversed"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Segment %d (%s): addresses %d..%d\n",
			segment, direction, leds[0], leds[len(leds)-1])

		return sendCommand(cmd, channel.DebugSegment, []int{segment})
	},
}

func init() {
	debugCmd.Flags().BoolVarP(&debugReverse, "reverse", "r", false, "show addresses of the reversed segment")
	rootCmd.AddCommand(debugCmd)
}
