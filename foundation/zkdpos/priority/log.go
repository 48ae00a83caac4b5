package priority

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// newPriorityRequestArgs describes the data layout of the settlement
// contract's NewPriorityRequest event:
//
//	NewPriorityRequest(address sender, uint64 serialId, uint8 opType,
//	                   bytes pubData, uint256 expirationBlock)
var newPriorityRequestArgs = abi.Arguments{
	{Name: "sender", Type: mustNewType("address")},
	{Name: "serialId", Type: mustNewType("uint64")},
	{Name: "opType", Type: mustNewType("uint8")},
	{Name: "pubData", Type: mustNewType("bytes")},
	{Name: "expirationBlock", Type: mustNewType("uint256")},
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// OpFromLog decodes a NewPriorityRequest event into a priority operation.
func OpFromLog(log ethtypes.Log) (Op, error) {
	values, err := newPriorityRequestArgs.Unpack(log.Data)
	if err != nil {
		return Op{}, fmt.Errorf("decoding priority request event: %w", ErrMalformedLog)
	}

	sender, ok := values[0].(types.Address)
	if !ok {
		return Op{}, fmt.Errorf("priority request sender: %w", ErrMalformedLog)
	}
	serialID, ok := values[1].(uint64)
	if !ok {
		return Op{}, fmt.Errorf("priority request serial id: %w", ErrMalformedLog)
	}
	opType, ok := values[2].(uint8)
	if !ok {
		return Op{}, fmt.Errorf("priority request op type: %w", ErrMalformedLog)
	}
	pubdata, ok := values[3].([]byte)
	if !ok {
		return Op{}, fmt.Errorf("priority request pubdata: %w", ErrMalformedLog)
	}
	expiration, ok := values[4].(*big.Int)
	if !ok || !expiration.IsUint64() {
		return Op{}, fmt.Errorf("priority request expiration block: %w", ErrMalformedLog)
	}

	data, err := ParseFromLogData(opType, sender, pubdata)
	if err != nil {
		return Op{}, err
	}

	return Op{
		SerialID:      types.SerialID(serialID),
		Data:          data,
		DeadlineBlock: expiration.Uint64(),
		EthHash:       log.TxHash,
		EthBlock:      log.BlockNumber,
	}, nil
}
