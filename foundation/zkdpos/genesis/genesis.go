// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Account seeds an account tree leaf with its starting balances. The
// balance amounts are decimal strings keyed by token symbol.
type Account struct {
	Address  types.Address     `json:"address"`
	Balances map[string]string `json:"balances"`
}

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time         `json:"date"`
	Network       string            `json:"network"`         // The L1 network this instance settles to.
	ChunkCapacity int               `json:"chunk_capacity"`  // The number of public data chunks per block.
	FirstSerialID types.SerialID    `json:"first_serial_id"` // The serial id of the next priority operation.
	FirstBlock    types.BlockNumber `json:"first_block"`     // The number of the next block to seal.
	Tokens        []types.TokenMeta `json:"tokens"`
	Accounts      []Account         `json:"accounts"`
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// TokenBySymbol finds a genesis token by its symbol.
func (g Genesis) TokenBySymbol(symbol string) (types.TokenMeta, error) {
	for _, token := range g.Tokens {
		if token.Symbol == symbol {
			return token, nil
		}
	}

	return types.TokenMeta{}, fmt.Errorf("token %q not present in genesis", symbol)
}

// ParseAmount converts a decimal balance string from the genesis file.
func ParseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}

	return amount, nil
}
