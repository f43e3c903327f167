// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package units

import "github.com/holiman/uint256"

// Denominations of the governance credit. The credit uses 18 decimals, so
// balances above ~18 whole tokens no longer fit in a uint64 and are carried as
// 256-bit integers.
const (
	Atto  uint64 = 1
	Femto uint64 = 1000 * Atto
	Pico  uint64 = 1000 * Femto
	Nano  uint64 = 1000 * Pico
	Micro uint64 = 1000 * Nano
	Milli uint64 = 1000 * Micro
	Token uint64 = 1000 * Milli // 10^18 atto
)

// Tokens returns n whole tokens in atto.
func Tokens(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(Token))
}
