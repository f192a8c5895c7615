package eth

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

// NullAddress is the burn sink; transfers to it destroy tokens.
const NullAddress = "0x0000000000000000000000000000000000000000"

// NormalizeAddress lower-cases and trims an address so map keys compare equal
// regardless of checksum casing.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// IsAddress reports whether s is a 0x-prefixed 20-byte hex string.
func IsAddress(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 42 || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

func IsBurn(to string) bool {
	return NormalizeAddress(to) == NullAddress
}

var maxInt64 = big.NewInt(1<<63 - 1)

// ParseAmount decodes a base-10 token amount. Amounts are big integers on the
// wire; anything negative, fractional, or beyond int64 is rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty amount")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return 0, errors.New("invalid amount")
	}
	if n.Sign() < 0 {
		return 0, errors.New("negative amount")
	}
	if n.Cmp(maxInt64) > 0 {
		return 0, errors.New("amount overflows int64")
	}
	return n.Int64(), nil
}
