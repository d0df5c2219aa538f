// Package wei provides shared ether parsing and formatting utilities.
//
// Ether uses 18 decimal places. All on-chain amounts are carried as
// big.Int wei (1 ETH = 10^18 wei); decimal strings only appear at the
// HTTP boundary.
package wei

import (
	"math/big"
	"strings"
)

const Decimals = 18

// Parse converts a decimal ether string (e.g. "5.5") to its wei
// big.Int representation. Returns (nil, false) on invalid input.
//
// Rules:
//   - Empty strings are rejected
//   - Negative amounts are rejected
//   - Multiple decimal points are rejected
//   - Fractional parts are padded/truncated to 18 decimal places
func Parse(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return nil, false
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, false
	}
	whole := parts[0]
	frac := ""
	if len(parts) > 1 {
		frac = parts[1]
	}
	if whole == "" {
		whole = "0"
	}

	for len(frac) < Decimals {
		frac += "0"
	}
	frac = frac[:Decimals]

	result, ok := new(big.Int).SetString(whole+frac, 10)
	return result, ok
}

// Format converts a wei big.Int to a decimal ether string with
// trailing zeros trimmed and at least one fractional digit,
// matching ethers' formatEther ("1.0", "5.5", "0.001").
func Format(amount *big.Int) string {
	if amount == nil {
		return "0.0"
	}
	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)
	s := abs.String()
	for len(s) < Decimals+1 {
		s = "0" + s
	}
	point := len(s) - Decimals
	whole, frac := s[:point], s[point:]

	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}

	result := whole + "." + frac
	if neg {
		result = "-" + result
	}
	return result
}
