package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sergev/zoetrope/config"
)

var templateForce bool

var templateCmd = &cobra.Command{
	Use:   "template [FILE.csv]",
	Short: "Write an example wiring table",
	Long: `Write an example wiring table to FILE.csv.
By default the file is named 'led_order.csv'.
LED controller is not used.`,
	Args: cobra.MaximumNArgs(1),
	// Override PersistentPreRunE to skip controller lookup
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(cmd.ErrOrStderr())
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := "led_order.csv"
		if len(args) > 0 {
			filename = args[0]
		}

		flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
		if templateForce {
			flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		}
		file, err := os.OpenFile(filename, flag, 0644)
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("file '%s' already exists, use --force to replace it", filename)
		}
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		if _, err := file.Write(config.DefaultWiring()); err != nil {
			file.Close()
			return fmt.Errorf("failed to write file %s: %w", filename, err)
		}
		if err := file.Close(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Example wiring table saved to file '%s'.\n", filename)
		return nil
	},
}

func init() {
	templateCmd.Flags().BoolVarP(&templateForce, "force", "f", false, "replace an existing file")
	rootCmd.AddCommand(templateCmd)
}
