package cmd

import (
	"github.com/spf13/cobra"

	"github.com/formlane/authcore/pkg/crypto"
)

func init() {
	rootCmd.AddCommand(newHashPasswordCommand())
}

// Seed migrations carry pre-hashed passwords; this produces compatible hashes
// without standing up the library.
func newHashPasswordCommand() *cobra.Command {
	var cost int

	hashCmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Hash a password for use in seed data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher := crypto.NewBcryptHasher(crypto.BcryptOptions{Cost: cost})

			hash, err := hasher.Hash(args[0])
			if err != nil {
				return err
			}

			cmd.Printf("%s\n", hash)
			return nil
		},
	}

	hashCmd.Flags().IntVar(&cost, "cost", crypto.DefaultBcryptOptions().Cost, "bcrypt cost factor")
	return hashCmd
}
