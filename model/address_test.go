package model

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const hexDigits = "0123456789abcdefABCDEF"

func randomHex(r *rand.Rand, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(hexDigits[r.Intn(len(hexDigits))])
	}
	return sb.String()
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		valid   bool
	}{
		{"lowercase", "0xd8da6bf26964af9d7eed9e03e53415d37aa96045", true},
		{"uppercase", "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", true},
		{"checksummed", "0xD7050816337a3f8f690F8083B5Ff8019D50c0E50", true},
		{"no prefix", "d8da6bf26964af9d7eed9e03e53415d37aa96045", false},
		{"capital X prefix", "0Xd8da6bf26964af9d7eed9e03e53415d37aa96045", false},
		{"too short", "0xd8da6bf26964af9d7eed9e03e53415d37aa9604", false},
		{"too long", "0xd8da6bf26964af9d7eed9e03e53415d37aa960455", false},
		{"non hex", "0xg8da6bf26964af9d7eed9e03e53415d37aa96045", false},
		{"leading space", " 0xd8da6bf26964af9d7eed9e03e53415d37aa96045", false},
		{"trailing newline", "0xd8da6bf26964af9d7eed9e03e53415d37aa96045\n", false},
		{"empty", "", false},
		{"prefix only", "0x", false},
		{"menu token", "Main Menu", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, IsValidAddress(tc.address))
		})
	}
}

func TestIsValidAddressRandomized(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		addr := "0x" + randomHex(r, 40)
		assert.True(t, IsValidAddress(addr), addr)

		n := r.Intn(80)
		if n != 40 {
			wrongLength := "0x" + randomHex(r, n)
			assert.False(t, IsValidAddress(wrongLength), wrongLength)
		}

		pos := 2 + r.Intn(40)
		broken := addr[:pos] + "z" + addr[pos+1:]
		assert.False(t, IsValidAddress(broken), broken)
	}
}
