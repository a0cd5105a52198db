package model

import (
	"github.com/samber/lo"
)

// Standard is the token interface a compliance report is produced for. The
// value is the label users pick from the menu.
type Standard string

const (
	ERC20   Standard = "ERC-20"
	ERC4626 Standard = "ERC-4626"
)

// Standards lists the supported standards in menu order.
var Standards = []Standard{ERC20, ERC4626}

var standardCodes = map[Standard]string{
	ERC20:   "ERC20",
	ERC4626: "ERC4626",
}

// Code returns the identifier ERCx uses for the standard (TestSuiteStandard).
func (s Standard) Code() string {
	return standardCodes[s]
}

func (s Standard) String() string {
	return string(s)
}

func (s Standard) IsValid() bool {
	return lo.Contains(Standards, s)
}

// ParseStandard matches a menu label exactly.
func ParseStandard(text string) (Standard, bool) {
	s := Standard(text)
	return s, s.IsValid()
}

// Network is a chain the ERCx service can test tokens on.
type Network string

const (
	Mainnet Network = "Mainnet"
	Sepolia Network = "Sepolia"
	Goerli  Network = "Goerli"
)

// Networks lists the supported networks in menu order.
var Networks = []Network{Mainnet, Sepolia, Goerli}

var networkChainIDs = map[Network]int64{
	Mainnet: 1,
	Sepolia: 11155111,
	Goerli:  5,
}

// ChainID returns the numeric chain identifier, 0 when the network is unset.
func (n Network) ChainID() int64 {
	return networkChainIDs[n]
}

func (n Network) String() string {
	return string(n)
}

func (n Network) IsValid() bool {
	return lo.Contains(Networks, n)
}

// ParseNetwork matches a menu label exactly.
func ParseNetwork(text string) (Network, bool) {
	n := Network(text)
	return n, n.IsValid()
}
