package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sergev/zoetrope/adapter"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial ports of this computer with their USB identifiers.
Ports of a recognized LED controller are marked with its name.`,
	Args: cobra.NoArgs,
	// Override PersistentPreRunE to skip controller lookup
	PersistentPreRunE: initConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := adapter.ListPorts()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(ports) == 0 {
			fmt.Fprintf(out, "No serial ports found.\n")
			return nil
		}
		for _, p := range ports {
			fmt.Fprintf(out, "%s", p.Name)
			if p.VID != "" || p.PID != "" {
				fmt.Fprintf(out, "  VID=0x%s PID=0x%s", p.VID, p.PID)
			}
			if p.Product != "" {
				fmt.Fprintf(out, "  %s", p.Product)
			}
			if p.SerialNumber != "" {
				fmt.Fprintf(out, "  serial %s", p.SerialNumber)
			}
			if p.Controller != "" {
				fmt.Fprintf(out, "  [%s]", p.Controller)
			}
			fmt.Fprintf(out, "\n")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
