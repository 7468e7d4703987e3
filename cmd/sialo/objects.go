package main

import (
	"github.com/sagarc03/sialo/clientcli"
	"github.com/spf13/cobra"
)

var (
	objectsCursor string
	objectsLimit  int
	objectsAll    bool
)

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "List object events",
	Long: `List object events for this application key, one "id:deleted" line
per event.

Examples:
  sialo objects
  sialo objects --limit 50 --cursor 100
  sialo objects --all --json`,
	Args: cobra.NoArgs,
	RunE: runObjects,
}

func init() {
	objectsCmd.Flags().StringVar(&objectsCursor, "cursor", "", "resume from this cursor")
	objectsCmd.Flags().IntVar(&objectsLimit, "limit", 100, "maximum events per page")
	objectsCmd.Flags().BoolVar(&objectsAll, "all", false, "follow cursors until the feed is exhausted")
}

func runObjects(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(nil)
	if err != nil {
		return err
	}

	client, cleanup, err := getClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := client.Objects(cmd.Context(), clientcli.ObjectsOptions{
		Cursor: objectsCursor,
		Limit:  objectsLimit,
		All:    objectsAll,
	})
	if err != nil {
		return err
	}

	return getFormatter().FormatObjects(cmd.OutOrStdout(), result)
}
