package types

// TokenMeta describes a token registered with the network.
type TokenMeta struct {
	ID       TokenID `json:"id"`
	Address  Address `json:"address"`
	Symbol   string  `json:"symbol"`
	Decimals uint8   `json:"decimals"`
}

// AccountRecord is the view of an account tree leaf this core needs for
// validation. The tree itself is owned by the state collaborator.
type AccountRecord struct {
	ID         AccountID  `json:"id"`
	Address    Address    `json:"address"`
	Nonce      Nonce      `json:"nonce"`
	PubKeyHash PubKeyHash `json:"pub_key_hash"`
}

// TokenRegistry provides token metadata lookups.
type TokenRegistry interface {
	TokenByID(id TokenID) (TokenMeta, error)
	Tokens() []TokenMeta
}

// AccountLookup provides account tree lookups.
type AccountLookup interface {
	AccountByID(id AccountID) (AccountRecord, error)
	AccountByAddress(addr Address) (AccountRecord, error)
}
