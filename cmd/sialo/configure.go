package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/sialo"
	"github.com/sagarc03/sialo/clientcli"
	"github.com/sagarc03/sialo/indexd"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage indexer profiles",
	Long: `Manage indexer profiles in the configuration file.

Profiles save an indexer URL and application key so you can switch
between them with --profile or SIALO_PROFILE.

Configuration is stored in ~/.sialo/config.yaml`,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured profiles",
	Long: `List all profiles configured in the config file.

The default profile is marked with an asterisk (*).`,
	Args: cobra.NoArgs,
	RunE: runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Long: `Add a new profile interactively.

You will be prompted for:
  - Indexer URL
  - Application key (leave empty and use 'sialo register --save-profile')
  - Whether to set as default

When a key is given it is checked against the indexer before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile details",
	Long: `Show details for a profile.

If no name is provided, shows the default profile.
The application key is hidden by default; use --show-secrets to reveal it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigureShow,
}

var showSecrets bool

func init() {
	configureCmd.AddCommand(configureListCmd)
	configureCmd.AddCommand(configureAddCmd)
	configureCmd.AddCommand(configureRemoveCmd)
	configureCmd.AddCommand(configureSetDefaultCmd)
	configureCmd.AddCommand(configureShowCmd)

	configureShowCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show the application key")
	configureListCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show application keys")
}

func runConfigureList(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	cfg, err := clientcli.LoadConfigFile(configPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			printNoProfiles(out)
			return nil
		}
		return fmt.Errorf("load config: %w", err)
	}

	if len(cfg.Profiles) == 0 {
		printNoProfiles(out)
		return nil
	}

	return getFormatter().FormatProfileList(out, cfg.Profiles, cfg.DefaultName(), showSecrets)
}

func printNoProfiles(w io.Writer) {
	_, _ = fmt.Fprintln(w, "No profiles configured.")
	_, _ = fmt.Fprintln(w, "Run 'sialo configure add <name>' or 'sialo register --save-profile <name>' to create one.")
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]
	path := configPath()

	cfg, err := clientcli.LoadConfigFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = &clientcli.ConfigFile{}
	}

	existingProfile, _ := cfg.GetProfile(name)
	if existingProfile != nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Profile '%s' already exists. Update it", name),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			_, _ = fmt.Fprintln(out, "Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	urlPrompt := promptui.Prompt{
		Label:    "Indexer URL",
		Default:  clientcli.DefaultIndexerURL,
		Validate: validateIndexerURL,
	}
	indexerURLVal, err := urlPrompt.Run()
	if err != nil {
		return handlePromptError(out, err)
	}

	keyPrompt := promptui.Prompt{
		Label: "Application Key (hex, optional)",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return nil
			}
			_, parseErr := sialo.ParseAppKey(input)
			return parseErr
		},
	}
	appKeyVal, err := keyPrompt.Run()
	if err != nil {
		return handlePromptError(out, err)
	}

	setAsDefault := false
	if len(cfg.Profiles) == 0 {
		setAsDefault = true
	} else {
		defaultPrompt := promptui.Prompt{
			Label:     "Set as default profile",
			IsConfirm: true,
		}
		if _, promptErr := defaultPrompt.Run(); promptErr == nil {
			setAsDefault = true
		}
	}

	if appKeyVal != "" {
		_, _ = fmt.Fprint(out, "Testing connection... ")
		if connErr := testIndexerConnection(cmd.Context(), indexerURLVal, appKeyVal); connErr != nil {
			_, _ = fmt.Fprintln(out, "FAILED")
			_, _ = fmt.Fprintf(out, "Warning: could not verify the key with the indexer: %v\n", connErr)

			continuePrompt := promptui.Prompt{
				Label:     "Save profile anyway",
				IsConfirm: true,
			}
			if _, promptErr := continuePrompt.Run(); promptErr != nil {
				_, _ = fmt.Fprintln(out, "Cancelled.")
				return nil //nolint:nilerr // User cancelled, not an error
			}
		} else {
			_, _ = fmt.Fprintln(out, "OK")
		}
	}

	newProfile := clientcli.Profile{
		Name:       name,
		IndexerURL: strings.TrimSuffix(indexerURLVal, "/"),
		AppKey:     strings.ToLower(appKeyVal),
		Default:    setAsDefault || (existingProfile != nil && existingProfile.Default),
	}
	cfg.UpsertProfile(newProfile)
	if setAsDefault {
		if err := cfg.SetDefault(name); err != nil {
			return err
		}
	}

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	if existingProfile != nil {
		_, _ = fmt.Fprintf(out, "Profile '%s' updated.\n", name)
	} else {
		_, _ = fmt.Fprintf(out, "Profile '%s' added.\n", name)
	}
	if setAsDefault {
		_, _ = fmt.Fprintln(out, "Set as default profile.")
	}
	return nil
}

func runConfigureRemove(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]
	path := configPath()

	cfg, err := clientcli.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err = cfg.GetProfile(name); err != nil {
		return err
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Remove profile '%s'", name),
		IsConfirm: true,
	}
	if _, promptErr := prompt.Run(); promptErr != nil {
		_, _ = fmt.Fprintln(out, "Cancelled.")
		return nil //nolint:nilerr // User cancelled, not an error
	}

	if err := cfg.RemoveProfile(name); err != nil {
		return fmt.Errorf("remove profile: %w", err)
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(cmd *cobra.Command, args []string) error {
	name := args[0]
	path := configPath()

	cfg, err := clientcli.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.SetDefault(name); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Default profile set to '%s'.\n", name)
	return nil
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	cfg, err := clientcli.LoadConfigFile(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	p, err := cfg.GetProfile(name)
	if err != nil {
		return err
	}

	isDefault := p.Name == cfg.DefaultName()
	return getFormatter().FormatProfileShow(cmd.OutOrStdout(), *p, isDefault, showSecrets)
}

func validateIndexerURL(input string) error {
	if input == "" {
		return errors.New("indexer URL is required")
	}
	parsedURL, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	return nil
}

// testIndexerConnection checks that the indexer accepts the key.
func testIndexerConnection(ctx context.Context, indexerURL, appKeyHex string) error {
	key, err := sialo.ParseAppKey(appKeyHex)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = indexd.Connect(ctx, indexerURL, key, indexd.TLSConfig(), indexd.WithTimeout(5*time.Second))
	return err
}

// handlePromptError handles promptui errors.
func handlePromptError(w io.Writer, err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		_, _ = fmt.Fprintln(w, "\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		_, _ = fmt.Fprintln(w, "Cancelled.")
		return nil
	}
	return err
}
