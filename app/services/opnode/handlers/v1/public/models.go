package public

import (
	"encoding/json"
	"math/big"

	"github.com/qingah/zkdpos/foundation/zkdpos/signature"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// submitTx is the envelope clients post to submit a transaction. The tx
// payload is decoded according to the type field.
type submitTx struct {
	Type        string          `json:"type" validate:"required,oneof=Transfer Withdraw ChangePubKey ForcedExit"`
	Tx          json.RawMessage `json:"tx" validate:"required"`
	EthAuthData *ethAuthData    `json:"ethAuthData"`
	EthSignData *tx.EthSignData `json:"ethSignData"`
}

// ethAuthData is the tagged union form of the ChangePubKey L1
// authorization. Only the fields of the named variant are read.
type ethAuthData struct {
	Type           string                       `json:"type" validate:"oneof=Onchain ECDSA CREATE2"`
	EthSignature   signature.PackedEthSignature `json:"ethSignature"`
	BatchHash      types.Hash                   `json:"batchHash"`
	CreatorAddress types.Address                `json:"creatorAddress"`
	SaltArg        types.Hash                   `json:"saltArg"`
	CodeHash       types.Hash                   `json:"codeHash"`
}

// submitBatch is the envelope for an atomic set of transactions. The
// batch level signatures cover the combined batch message.
type submitBatch struct {
	Txs           []submitTx                     `json:"txs" validate:"required,min=1,dive"`
	BatchID       int64                          `json:"batchId"`
	EthSignatures []signature.PackedEthSignature `json:"ethSignatures"`
}

type submitResult struct {
	Hash   types.Hash `json:"hash"`
	Status string     `json:"status"`
}

type pendingTx struct {
	Type    string          `json:"type"`
	Account types.AccountID `json:"account"`
	Nonce   types.Nonce     `json:"nonce"`
	Token   types.TokenID   `json:"token"`
	Fee     *big.Int        `json:"fee"`
	Hash    types.Hash      `json:"hash"`
}

type closest struct {
	Requested *big.Int `json:"requested"`
	Packable  *big.Int `json:"packable"`
}

type queueStatus struct {
	Pending    int            `json:"pending"`
	Included   int            `json:"included"`
	Expired    int            `json:"expired"`
	NextSerial types.SerialID `json:"next_serial"`
}

type decodedOp struct {
	Tag    byte        `json:"tag"`
	Chunks int         `json:"chunks"`
	Op     interface{} `json:"op"`
}
