package cmd

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sergev/zoetrope/ledmap"
)

const supportedWiringFormatsText = `Supported wiring table formats:
    *.csv or *.txt - lines of "physical, direction, logical", '#' starts a comment
    *.xlsx         - the same three columns on the first sheet, optional header row
    *.yaml or *.yml - a "rows" list, or "loops" each holding "rows"`

var (
	mapOutput  string
	mapSave    bool
	mapGrouped bool
)

var mapCmd = &cobra.Command{
	Use:   "map [WIRING.EXT]",
	Short: "Translate a wiring table into controller addresses",
	Long: `Translate a wiring table into the address order of the animation controller.
Every row names a physical segment, its direction (1 = forward, 0 = reversed)
and the logical segment it occupies. The addresses are split into equal loops
and printed one loop per line.
By default the wiring table of the selected profile is used.
LED controller is not used.
` + supportedWiringFormatsText,
	Args: cobra.MaximumNArgs(1),
	// Override PersistentPreRunE to skip controller lookup
	PersistentPreRunE: initConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := profile.Wiring
		if len(args) > 0 {
			filename = args[0]
		}
		if filename == "" {
			return errors.New("no wiring table given and profile has none")
		}

		loops, err := mapWiring(filename)
		if err != nil {
			return err
		}

		output := mapOutput
		if output == "" && mapSave {
			output = profile.Output
			if output == "" {
				return fmt.Errorf("profile %q has no output file", profile.Name)
			}
		}
		if output == "" {
			return ledmap.WriteLoops(cmd.OutOrStdout(), loops)
		}

		if err := ledmap.SaveLoops(output, loops); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Addresses of %d loop(s) saved to file '%s'.\n", len(loops), output)
		return nil
	},
}

// mapWiring reads the table and computes the loops for the current profile
func mapWiring(filename string) ([]ledmap.Loop, error) {
	g := profile.Geometry()

	if mapGrouped {
		groups, err := ledmap.ReadWiringGroups(filename)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("wiring", filename).Int("groups", len(groups)).Msg("wiring table read")
		return ledmap.MapGroups(g, groups)
	}

	rows, err := ledmap.ReadWiringFile(filename)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("wiring", filename).Int("rows", len(rows)).Int("loops", g.Loops).Msg("wiring table read")
	return ledmap.Map(g, rows)
}

func init() {
	mapCmd.Flags().StringVarP(&mapOutput, "output", "o", "", "write addresses to FILE")
	mapCmd.Flags().BoolVarP(&mapSave, "save", "s", false, "write addresses to the output file of the profile")
	mapCmd.Flags().BoolVarP(&mapGrouped, "grouped", "g", false, "blank lines separate loops instead of equal partitions")
	rootCmd.AddCommand(mapCmd)
}
