package main

import (
	"fmt"

	"github.com/sagarc03/sialo/indexd"
	"github.com/spf13/cobra"
)

var generateSeedCmd = &cobra.Command{
	Use:   "generate-seed",
	Short: "Generate a new BIP-39 seed phrase",
	Long: `Generate a new 12 word BIP-39 seed phrase.

Keep the phrase safe: it is the only way to recover the application key.
Pass it to 'sialo register' with --seed-phrase or SEED_PHRASE.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		phrase, err := indexd.NewSeedPhrase()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), phrase)
		return err
	},
}
