package cmd

import (
	"fmt"
	"log"
	"math/big"

	"github.com/qingah/zkdpos/foundation/zkdpos/packing"
	"github.com/spf13/cobra"
)

var feeCmd = &cobra.Command{
	Use:   "fee [amount]",
	Short: "Print the closest packable fee and amount for a value",
	Args:  cobra.ExactArgs(1),
	Run:   feeRun,
}

func init() {
	rootCmd.AddCommand(feeCmd)
}

func feeRun(cmd *cobra.Command, args []string) {
	value, ok := new(big.Int).SetString(args[0], 10)
	if !ok {
		log.Fatalf("invalid amount %q", args[0])
	}

	fee, err := packing.ClosestPackableFee(value)
	if err != nil {
		log.Fatal(err)
	}

	amount, err := packing.ClosestPackableAmount(value)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("requested :", value)
	fmt.Println("fee       :", fee)
	fmt.Println("amount    :", amount)
}
