package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/sialo"
	"github.com/sagarc03/sialo/clientcli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	registerSeedPhrase      string
	registerAppMetadata     string
	registerSaveProfile     string
	registerApprovalTimeout time.Duration
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register an application key with the indexer",
	Long: `Register an application key with the indexer.

The command requests a connection, prints an approval URL, and waits until
the request is approved. The application key is then derived from the seed
phrase and registered.

The seed phrase is read from --seed-phrase, SEED_PHRASE, or an interactive
prompt. Generate one with 'sialo generate-seed'.

Examples:
  sialo register
  sialo register --app-metadata ./app.json --save-profile prod
  SEED_PHRASE="..." sialo register --approval-timeout 10m`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVarP(&registerSeedPhrase, "seed-phrase", "s", "", "BIP-39 seed phrase (env: SEED_PHRASE)")
	registerCmd.Flags().StringVar(&registerAppMetadata, "app-metadata", "", "path to a JSON registration request (env: APP_METADATA)")
	registerCmd.Flags().StringVar(&registerSaveProfile, "save-profile", "", "save the indexer URL and key as this profile")
	registerCmd.Flags().DurationVar(&registerApprovalTimeout, "approval-timeout", 0, "give up waiting for approval after this long (0 waits until interrupted)")
}

func runRegister(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(&clientcli.Config{
		SeedPhrase:  registerSeedPhrase,
		AppMetadata: registerAppMetadata,
	})
	if err != nil {
		return err
	}

	if cfg.SeedPhrase == "" && term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // fd fits in int
		phrase, promptErr := promptSeedPhrase()
		if promptErr != nil {
			return promptErr
		}
		cfg.SeedPhrase = phrase
	}
	if err := cfg.ValidateForRegister(); err != nil {
		return err
	}

	req, err := sialo.LoadRegistrationRequest(cfg.AppMetadata)
	if err != nil {
		return err
	}

	client, cleanup, err := getClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if registerApprovalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, registerApprovalTimeout)
		defer cancel()
	}

	// The approval URL must reach the user even when stdout is JSON.
	urlOut := cmd.OutOrStdout()
	if jsonOutput {
		urlOut = cmd.ErrOrStderr()
	}

	result, err := client.Register(ctx, clientcli.RegisterOptions{
		Request:    req,
		SeedPhrase: cfg.SeedPhrase,
		OnApprovalURL: func(url string) {
			_, _ = fmt.Fprintf(urlOut, "Please approve the app connection by visiting the following URL: %s\n", url)
		},
	})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatRegister(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if registerSaveProfile != "" {
		if err := saveRegisteredProfile(registerSaveProfile, result); err != nil {
			return err
		}
		if !quiet && !jsonOutput {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved to profile '%s'.\n", registerSaveProfile)
		}
	}
	return nil
}

func promptSeedPhrase() (string, error) {
	prompt := promptui.Prompt{
		Label: "Seed phrase",
		Mask:  '*',
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("seed phrase is required")
			}
			return nil
		},
	}
	phrase, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
			return "", clientcli.ErrSeedPhraseRequired
		}
		return "", err
	}
	return strings.TrimSpace(phrase), nil
}

// saveRegisteredProfile stores the issued key under name, creating the
// config file when needed. The first profile becomes the default; an
// existing profile keeps its default flag.
func saveRegisteredProfile(name string, result *clientcli.RegisterResult) error {
	path := configPath()
	file, err := clientcli.LoadConfigFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load config: %w", err)
		}
		file = &clientcli.ConfigFile{}
	}

	isDefault := len(file.Profiles) == 0
	if existing, getErr := file.GetProfile(name); getErr == nil {
		isDefault = existing.Default
	}

	file.UpsertProfile(clientcli.Profile{
		Name:       name,
		IndexerURL: result.IndexerURL,
		AppKey:     result.AppKey,
		Default:    isDefault,
	})

	if err := file.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
