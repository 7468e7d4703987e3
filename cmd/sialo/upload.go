package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sagarc03/sialo"
	"github.com/sagarc03/sialo/clientcli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	uploadDataShards   uint32
	uploadParityShards uint32
	uploadProgress     string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a file",
	Long: `Upload a file, erasure coded into data and parity shards, and pin it.

Progress is reported as shards complete. The object id printed at the end
is what download, share, and delete take.

Examples:
  sialo upload ./report.pdf
  sialo upload --data-shards 4 --parity-shards 8 ./photo.jpg
  sialo upload --progress bar ./backup.tar`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().Uint32Var(&uploadDataShards, "data-shards", 0, "data shards per slab (default 10 when both counts are unset)")
	uploadCmd.Flags().Uint32Var(&uploadParityShards, "parity-shards", 0, "parity shards per slab (default 20 when both counts are unset)")
	uploadCmd.Flags().StringVar(&uploadProgress, "progress", "auto", "progress display: auto, text, bar, none")
}

func runUpload(cmd *cobra.Command, args []string) error {
	renderer, err := progressRenderer(uploadProgress, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	cfg, err := buildConfig(nil)
	if err != nil {
		return err
	}

	client, cleanup, err := getClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		LocalPath:    args[0],
		DataShards:   uploadDataShards,
		ParityShards: uploadParityShards,
		Renderer:     renderer,
	})
	if err != nil {
		return err
	}

	return getFormatter().FormatUpload(cmd.OutOrStdout(), result)
}

// progressRenderer picks the upload display. "auto" shows the text counter
// only on an interactive stdout, and never with --json or --quiet.
func progressRenderer(mode string, w io.Writer) (sialo.ProgressRenderer, error) {
	switch mode {
	case "auto":
		if jsonOutput || quiet || !isTerminal(w) {
			return clientcli.NopRenderer{}, nil
		}
		return &clientcli.TextRenderer{W: w}, nil
	case "text":
		return &clientcli.TextRenderer{W: w}, nil
	case "bar":
		return &clientcli.BarRenderer{W: w}, nil
	case "none":
		return clientcli.NopRenderer{}, nil
	default:
		return nil, fmt.Errorf("invalid progress mode %q: use auto, text, bar, or none", mode)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
