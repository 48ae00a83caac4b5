package registry_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/qingah/zkdpos/business/sys/registry"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

var (
	addr1 = common.HexToAddress("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	addr2 = common.HexToAddress("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
)

func testTokens() []types.TokenMeta {
	return []types.TokenMeta{
		{ID: 0, Symbol: "DPOS", Decimals: 18},
		{ID: 1, Address: common.HexToAddress("0x6b175474e89094c44da98b954eedeac495271d0f"), Symbol: "DAI", Decimals: 18},
	}
}

func TestAccountAssignment(t *testing.T) {
	t.Log("Given the need to assign account ids to fresh addresses.")
	{
		t.Log("\tTest 0:\tWhen assigning two addresses.")
		{
			reg := registry.New(testTokens())

			first, err := reg.AssignAccount(addr1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould assign the first address: %s.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould assign the first address.", success)

			second, err := reg.AssignAccount(addr2)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould assign the second address: %s.", failed, err)
			}

			if first.ID == second.ID {
				t.Fatalf("\t%s\tTest 0:\tShould assign distinct ids, both got %d.", failed, first.ID)
			}
			t.Logf("\t%s\tTest 0:\tShould assign distinct ids.", success)

			// Assigning the same address again returns the same leaf.
			again, err := reg.AssignAccount(addr1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould tolerate a repeated assignment: %s.", failed, err)
			}
			if again.ID != first.ID {
				t.Fatalf("\t%s\tTest 0:\tShould return the existing id %d, got %d.", failed, first.ID, again.ID)
			}
			t.Logf("\t%s\tTest 0:\tShould return the existing leaf on repeat.", success)

			byAddr, err := reg.AccountByAddress(addr2)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould find the account by address: %s.", failed, err)
			}
			if byAddr.ID != second.ID {
				t.Fatalf("\t%s\tTest 0:\tShould match the assigned id %d, got %d.", failed, second.ID, byAddr.ID)
			}
			t.Logf("\t%s\tTest 0:\tShould find the account by address.", success)

			if _, err := reg.AccountByID(99); !errors.Is(err, registry.ErrUnknownAccount) {
				t.Fatalf("\t%s\tTest 0:\tShould reject an unknown id, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject an unknown id.", success)
		}
	}
}

func TestBalances(t *testing.T) {
	t.Log("Given the need to track account balances per token.")
	{
		t.Log("\tTest 0:\tWhen crediting and debiting an account.")
		{
			reg := registry.New(testTokens())

			record, err := reg.AssignAccount(addr1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould assign the address: %s.", failed, err)
			}

			reg.Credit(record.ID, 1, big.NewInt(1_000))
			if got := reg.Balance(record.ID, 1); got.Cmp(big.NewInt(1_000)) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould hold 1000, got %s.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould hold the credited amount.", success)

			if err := reg.Debit(record.ID, 1, big.NewInt(400)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould debit within the balance: %s.", failed, err)
			}
			if got := reg.Balance(record.ID, 1); got.Cmp(big.NewInt(600)) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould hold 600 after the debit, got %s.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould debit within the balance.", success)

			if err := reg.Debit(record.ID, 1, big.NewInt(601)); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a debit past the balance.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a debit past the balance.", success)

			// An untouched token reads as zero.
			if got := reg.Balance(record.ID, 0); got.Sign() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould read zero for an untouched token, got %s.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould read zero for an untouched token.", success)

			// The returned value is a copy.
			reg.Balance(record.ID, 1).SetInt64(9_999)
			if got := reg.Balance(record.ID, 1); got.Cmp(big.NewInt(600)) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould not leak the internal value, got %s.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould hand out copies of balances.", success)
		}
	}
}

func TestTokenLookups(t *testing.T) {
	t.Log("Given the need to resolve registered tokens.")
	{
		t.Log("\tTest 0:\tWhen looking up tokens by id.")
		{
			reg := registry.New(testTokens())

			dai, err := reg.TokenByID(1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould find token 1: %s.", failed, err)
			}
			if dai.Symbol != "DAI" {
				t.Fatalf("\t%s\tTest 0:\tShould find DAI, got %q.", failed, dai.Symbol)
			}
			t.Logf("\t%s\tTest 0:\tShould find the DAI token.", success)

			if _, err := reg.TokenByID(9); !errors.Is(err, registry.ErrUnknownToken) {
				t.Fatalf("\t%s\tTest 0:\tShould reject an unknown token, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject an unknown token.", success)

			tokens := reg.Tokens()
			if len(tokens) != 2 || tokens[0].ID != 0 || tokens[1].ID != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould list tokens sorted by id, got %v.", failed, tokens)
			}
			t.Logf("\t%s\tTest 0:\tShould list tokens sorted by id.", success)
		}
	}
}
