package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sergev/zoetrope/channel"
)

var modeCmd = &cobra.Command{
	Use:   "mode MODE [BYTE...]",
	Short: "Switch the animation mode",
	Long: `Switch the animation mode of the LED controller.
MODE and the optional BYTE values are passed to the controller as is,
up to 7 bytes in total. Values may be decimal or 0x hex.`,
	Args: cobra.RangeArgs(1, channel.PadSize-1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := make([]int, len(args))
		for i, arg := range args {
			v, err := parseByte(arg)
			if err != nil {
				return err
			}
			payload[i] = v
		}
		return sendCommand(cmd, channel.AnimationMode, payload)
	},
}

func init() {
	rootCmd.AddCommand(modeCmd)
}
