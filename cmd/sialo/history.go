package main

import (
	"fmt"

	"github.com/sagarc03/sialo"
	"github.com/sagarc03/sialo/catalog"
	"github.com/sagarc03/sialo/clientcli"
	"github.com/spf13/cobra"
)

var (
	historyKind   string
	historyObject string
	historyLimit  int
	historyClear  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show locally recorded uploads, shares, and deletes",
	Long: `Show the operations this machine has recorded in ~/.sialo/history.db,
newest first.

Examples:
  sialo history
  sialo history --kind share --limit 5
  sialo history --object 3f2a...c9
  sialo history --clear`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "only show entries of this kind: upload, share, delete")
	historyCmd.Flags().StringVar(&historyObject, "object", "", "only show entries for this object id")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all recorded entries")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	q := catalog.Query{Kind: catalog.Kind(historyKind), Limit: historyLimit}
	if historyKind != "" && !q.Kind.Valid() {
		return fmt.Errorf("%w: %s", catalog.ErrInvalidKind, historyKind)
	}
	if historyObject != "" {
		id, err := sialo.ParseObjectID(historyObject)
		if err != nil {
			return err
		}
		q.ObjectID = &id
	}

	path := clientcli.DefaultHistoryPath()
	if path == "" {
		return fmt.Errorf("open history: %w", clientcli.ErrEmptyPath)
	}
	history, err := catalog.Open(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = history.Close() }()

	if historyClear {
		if err := history.Clear(cmd.Context()); err != nil {
			return err
		}
		if !quiet && !jsonOutput {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		}
		return nil
	}

	entries, err := history.List(cmd.Context(), q)
	if err != nil {
		return err
	}
	return getFormatter().FormatHistory(cmd.OutOrStdout(), entries)
}
