package main

import (
	"github.com/spf13/cobra"
)

var pruneSlabsCmd = &cobra.Command{
	Use:   "prune-slabs",
	Short: "Remove slabs no object references",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := buildConfig(nil)
		if err != nil {
			return err
		}

		client, cleanup, err := getClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := client.PruneSlabs(cmd.Context())
		if err != nil {
			return err
		}
		return getFormatter().FormatPrune(cmd.OutOrStdout(), result)
	},
}
