package main

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <object-hash>",
	Aliases: []string{"rm"},
	Short:   "Delete an object",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(nil)
	if err != nil {
		return err
	}

	client, cleanup, err := getClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := client.Delete(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return getFormatter().FormatDelete(cmd.OutOrStdout(), result)
}
