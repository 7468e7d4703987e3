package main

import (
	"github.com/sagarc03/sialo/clientcli"
	"github.com/spf13/cobra"
)

var (
	shareObjectHash string
	shareUntil      string
	shareSiaScheme  bool
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Create a share link for an object",
	Long: `Create a signed link that anyone can download the object with until
it expires.

The expiry is either relative to now (1h, 10d, 4w) or an ISO 8601
timestamp such as 2025-01-31T12:00:00Z.

Examples:
  sialo share -s 3f2a...c9 -t 7d
  sialo share -s 3f2a...c9 -t 2025-01-31T12:00:00Z --sia`,
	Args: cobra.NoArgs,
	RunE: runShare,
}

func init() {
	shareCmd.Flags().StringVarP(&shareObjectHash, "object-hash", "s", "", "object id to share")
	shareCmd.Flags().StringVarP(&shareUntil, "share-until", "t", "", "expiry: 1h, 10d, 4w, or an ISO 8601 timestamp")
	shareCmd.Flags().BoolVar(&shareSiaScheme, "sia", false, "print the sia:// form of the link")
	_ = shareCmd.MarkFlagRequired("object-hash")
	_ = shareCmd.MarkFlagRequired("share-until")
}

func runShare(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(nil)
	if err != nil {
		return err
	}

	client, cleanup, err := getClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := client.Share(cmd.Context(), clientcli.ShareOptions{
		ObjectID:  shareObjectHash,
		Expiry:    shareUntil,
		SiaScheme: shareSiaScheme,
	})
	if err != nil {
		return err
	}

	return getFormatter().FormatShare(cmd.OutOrStdout(), result)
}
