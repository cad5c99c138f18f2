package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klingon-exchange/dib-relay/internal/relayconfig"
)

var keygenPassphrase string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a mnemonic and derived node.secret for a new deployment",
	RunE:  runKeygen,
}

func init() {
	keygenCmd.Flags().StringVar(&keygenPassphrase, "passphrase", "", "optional BIP-39 passphrase")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	mnemonic, secretHex, err := relayconfig.GenerateSecret(keygenPassphrase)
	if err != nil {
		return err
	}
	fmt.Println("mnemonic (write this down, do not commit it):")
	fmt.Println("  " + mnemonic)
	fmt.Println()
	fmt.Println("node.secret:")
	fmt.Println("  " + secretHex)
	return nil
}
