package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sagarc03/sialo/catalog"
	"github.com/sagarc03/sialo/clientcli"
	"github.com/sagarc03/sialo/indexd"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	indexerURL string
	appKey     string
	jsonOutput bool
	quiet      bool
	noHistory  bool
)

var rootCmd = &cobra.Command{
	Use:     "sialo",
	Version: version,
	Short:   "A CLI for uploading, downloading, and managing files on Sia",
	Long: `sialo - A CLI for uploading, downloading, and managing files on Sia

Get started by registering an application key with an indexer:
  sialo generate-seed
  sialo register --save-profile default

Then upload and share files:
  sialo upload ./report.pdf
  sialo share -s <object-hash> -t 7d`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		readConfig(cmd)
		return setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "profile config file (default: ~/.sialo/config.yaml, env: SIALO_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: SIALO_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&indexerURL, "indexer-url", "u", "", "indexer API URL (default: "+clientcli.DefaultIndexerURL+", env: INDEXER_URL)")
	rootCmd.PersistentFlags().StringVarP(&appKey, "app-key", "a", "", "application key in hex (env: APP_KEY)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "do not record operations in the local history")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level: debug, info, warn, error (env: LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-path", "", "write logs to this file instead of stderr (env: LOG_PATH)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(generateSeedCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(objectsCmd)
	rootCmd.AddCommand(pruneSlabsCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeLogFile()

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		reportError(stderr, cmd, err)
		return 1
	}
	return 0
}

func reportError(w io.Writer, cmd *cobra.Command, err error) {
	if jsonOutput {
		_ = getFormatter().FormatError(w, err)
		return
	}
	if cmd == nil || cmd == rootCmd {
		_, _ = fmt.Fprintln(w, err)
		return
	}
	_, _ = fmt.Fprintf(w, "%s command failed: %v\n", cmd.Name(), err)
}

// configPath returns the profile config file path: flag, then env, then default.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

func profileName() string {
	if profile != "" {
		return profile
	}
	return clientcli.ProfileFromEnv()
}

// loadProfileConfig returns the config of the selected profile. A missing
// default config file is not an error; a missing file or profile that
// the user asked for explicitly is.
func loadProfileConfig() (*clientcli.Config, error) {
	explicitFile := cfgFile != "" || clientcli.ConfigPathFromEnv() != ""
	name := profileName()

	path := configPath()
	if path == "" {
		return nil, nil
	}

	file, err := clientcli.LoadConfigFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicitFile && name == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("load config: %w", err)
	}

	p, err := file.GetProfile(name)
	if err != nil {
		if errors.Is(err, clientcli.ErrNoProfiles) && name == "" {
			return nil, nil
		}
		return nil, err
	}
	return clientcli.ConfigFromProfile(p), nil
}

// buildConfig merges config from profile, env vars, and flags (flags take precedence).
func buildConfig(flagCfg *clientcli.Config) (*clientcli.Config, error) {
	profileCfg, err := loadProfileConfig()
	if err != nil {
		return nil, err
	}

	if flagCfg == nil {
		flagCfg = &clientcli.Config{}
	}
	flagCfg.IndexerURL = indexerURL
	flagCfg.AppKey = appKey

	cfg, err := clientcli.MergeConfig(profileCfg, clientcli.ConfigFromEnv(), flagCfg)
	if err != nil {
		return nil, err
	}
	return cfg.WithDefaults(), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates a configured client. The returned cleanup closes the
// history database.
func getClient(ctx context.Context, cfg *clientcli.Config) (*clientcli.Client, func(), error) {
	opts := []clientcli.Option{
		clientcli.WithLogger(slog.Default()),
		clientcli.WithSDKOptions(indexd.WithLogger(slog.Default())),
	}

	cleanup := func() {}
	if !noHistory {
		if history := openHistory(ctx); history != nil {
			opts = append(opts, clientcli.WithRecorder(history))
			cleanup = func() { _ = history.Close() }
		}
	}

	client, err := clientcli.New(cfg, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}

// openHistory opens the local history database. Failure only disables
// recording.
func openHistory(ctx context.Context) *catalog.Catalog {
	path := clientcli.DefaultHistoryPath()
	if path == "" {
		return nil
	}
	history, err := catalog.Open(ctx, path)
	if err != nil {
		slog.Warn("history disabled", "path", path, "error", err)
		return nil
	}
	return history
}
