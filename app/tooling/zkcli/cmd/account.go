package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/qingah/zkdpos/foundation/zkdpos/signature"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the L1 address and L2 pubkey hash for the wallet",
	Run:   accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	address := signature.AddressFromPrivateKey(privateKey)
	pkh := signature.PubKeyHashFromPubKey(&privateKey.PublicKey)

	fmt.Println("address :", address)
	fmt.Println("pubkey  :", pkh)
}
