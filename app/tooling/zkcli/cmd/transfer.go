package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/qingah/zkdpos/foundation/zkdpos/signature"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
	"github.com/spf13/cobra"
)

var (
	url       string
	accountID uint32
	to        string
	token     uint16
	amount    string
	fee       string
	nonce     uint32
)

// transferCmd signs and submits a transfer to the operation node.
var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Sign and submit a transfer",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		transferWithDetails(privateKey)
	},
}

func transferWithDetails(privateKey *ecdsa.PrivateKey) {
	network, err := types.ParseNetwork(networkName)
	if err != nil {
		log.Fatal(err)
	}

	amountValue, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		log.Fatalf("invalid amount %q", amount)
	}

	feeValue, ok := new(big.Int).SetString(fee, 10)
	if !ok {
		log.Fatalf("invalid fee %q", fee)
	}

	t := tx.Transfer{
		AccountID: types.AccountID(accountID),
		From:      signature.AddressFromPrivateKey(privateKey),
		To:        common.HexToAddress(to),
		Token:     types.TokenID(token),
		Amount:    amountValue,
		Fee:       feeValue,
		Nonce:     types.Nonce(nonce),
		TimeRange: tx.DefaultTimeRange(),
	}

	preimage, err := t.Bytes()
	if err != nil {
		log.Fatal(err)
	}

	t.Signature, err = signature.Sign(network, preimage, privateKey)
	if err != nil {
		log.Fatal(err)
	}

	envelope := struct {
		Type string      `json:"type"`
		Tx   tx.Transfer `json:"tx"`
	}{
		Type: "Transfer",
		Tx:   t,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(body))
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8280", "Url of the node.")
	transferCmd.Flags().Uint32VarP(&accountID, "id", "i", 0, "Sender account id.")
	transferCmd.Flags().StringVarP(&to, "to", "t", "", "Recipient address.")
	transferCmd.Flags().Uint16Var(&token, "token", 0, "Token id to transfer.")
	transferCmd.Flags().StringVarP(&amount, "value", "v", "0", "Amount to transfer.")
	transferCmd.Flags().StringVarP(&fee, "fee", "f", "0", "Fee to offer.")
	transferCmd.Flags().Uint32Var(&nonce, "nonce", 0, "Account nonce.")
}
