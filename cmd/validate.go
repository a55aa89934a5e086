package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/smazurov/mixnode/internal/layers"
	"github.com/spf13/cobra"
)

// ValidateLayersCmd represents the validate-layers command
var ValidateLayersCmd = &cobra.Command{
	Use:   "validate-layers",
	Short: "Validate the layer configuration file",
	Long:  `Loads the layer configuration and checks every layer spec without starting the mixer.`,
	Run: func(cmd *cobra.Command, args []string) {
		configFile, _ := cmd.Flags().GetString("config")
		quiet, _ := cmd.Flags().GetBool("quiet")

		store := layers.NewTOML(configFile)
		if err := store.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", configFile, err)
			os.Exit(1)
		}

		specs := store.GetAllLayers()
		ids := make([]string, 0, len(specs))
		for id := range specs {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		failures := 0
		for _, id := range ids {
			spec := specs[id]
			if _, err := spec.Validate(); err != nil {
				failures++
				fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
				continue
			}
			if !quiet {
				fmt.Printf("ok: %s (%s %s %dx%d)\n", id, spec.Pattern, spec.Format, spec.Width, spec.Height)
			}
		}

		if failures > 0 {
			fmt.Fprintf(os.Stderr, "%d of %d layers invalid\n", failures, len(ids))
			os.Exit(1)
		}
		if !quiet {
			fmt.Printf("%d layers valid\n", len(ids))
		}
	},
}

func init() {
	ValidateLayersCmd.Flags().StringP("config", "c", "layers.toml", "Path to layer configuration file")
	ValidateLayersCmd.Flags().BoolP("quiet", "q", false, "Only report problems")
}
