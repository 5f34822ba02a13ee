package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"collab/internal/features"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Print the evaluated feature flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		flags := features.Defaults(cfg.Features.AllowSignUp).All()

		names := make([]string, 0, len(flags))
		for name := range flags {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %t\n", name, flags[name])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(featuresCmd)
}
