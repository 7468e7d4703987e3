package main

import (
	"github.com/sagarc03/sialo/clientcli"
	"github.com/spf13/cobra"
)

var downloadOutput string

var downloadCmd = &cobra.Command{
	Use:   "download <source>",
	Short: "Download an object",
	Long: `Download an object to a local file.

SOURCE is either a share link (sia:// or https://) or an object id. Share
links need no application key.

Examples:
  sialo download 3f2a...c9 -o ./report.pdf
  sialo download "sia://app.sia.storage/objects/3f2a...c9/shared?..." -o ./report.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "local file to write")
	_ = downloadCmd.MarkFlagRequired("output")
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(nil)
	if err != nil {
		return err
	}

	client, cleanup, err := getClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		Source:     args[0],
		OutputPath: downloadOutput,
	})
	if err != nil {
		return err
	}

	return getFormatter().FormatDownload(cmd.OutOrStdout(), result)
}
