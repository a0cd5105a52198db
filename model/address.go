package model

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsValidAddress reports whether s is exactly "0x" followed by 40 hex digits.
// common.IsHexAddress alone also accepts "0X" and unprefixed input.
func IsValidAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}
