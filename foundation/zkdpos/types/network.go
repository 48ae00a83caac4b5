package types

import "fmt"

// Network identifies the L1 network the zkDpos instance settles to. The
// chain id takes part in every signing preimage so a transaction signed
// for one network can't be replayed on another.
type Network int

const (
	Mainnet Network = iota
	Testnet
	Ropsten
	Rinkeby
	Localhost
	Test
)

// ParseNetwork converts the textual network name used in configuration.
func ParseNetwork(s string) (Network, error) {
	switch s {
	case "mainnet":
		return Mainnet, nil
	case "testnet":
		return Testnet, nil
	case "ropsten":
		return Ropsten, nil
	case "rinkeby":
		return Rinkeby, nil
	case "localhost":
		return Localhost, nil
	case "test":
		return Test, nil
	}

	return 0, fmt.Errorf("unknown network %q", s)
}

// ChainID returns the L1 chain id of the network.
func (n Network) ChainID() uint32 {
	switch n {
	case Mainnet:
		return 201018
	case Testnet:
		return 201030
	case Ropsten:
		return 3
	case Rinkeby:
		return 4
	case Localhost:
		return 9
	}

	return 0
}

// String implements the fmt.Stringer interface.
func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Ropsten:
		return "ropsten"
	case Rinkeby:
		return "rinkeby"
	case Localhost:
		return "localhost"
	case Test:
		return "test"
	}

	return "unknown"
}
