package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/qingah/zkdpos/foundation/zkdpos/op"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [pubdata]",
	Short: "Decode block public data back into operations",
	Args:  cobra.ExactArgs(1),
	Run:   decodeRun,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func decodeRun(cmd *cobra.Command, args []string) {
	data, err := hexutil.Decode(args[0])
	if err != nil {
		log.Fatal(err)
	}

	ops, err := op.DecodeAll(data)
	if err != nil {
		log.Fatal(err)
	}

	for i, o := range ops {
		fmt.Printf("%3d: tag 0x%02x chunks %d %+v\n", i, o.Tag(), o.Chunks(), o)
	}
}
