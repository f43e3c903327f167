// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
)

var _ Capability = (*Escrow)(nil)

// Capability is the token capability consumed by the governance ledger. Every
// amount it holds is held by a single custody account.
type Capability interface {
	// Address returns the custody account.
	Address() ids.ShortID
	BalanceOf(addr ids.ShortID) *uint256.Int
	// Pull moves amount from an account into custody. It fails with
	// ErrInsufficientAllowance or ErrInsufficientBalance.
	Pull(from ids.ShortID, amount *uint256.Int) error
	// Push moves amount out of custody to an account.
	Push(to ids.ShortID, amount *uint256.Int) error
	// Mint creates amount tokens in custody.
	Mint(amount *uint256.Int) error
	// Burn destroys amount tokens held in custody.
	Burn(amount *uint256.Int) error
}

// Escrow binds a Ledger to the custody account of the governance ledger. Pull
// spends an approval granted to the custody account; every other movement is
// out of, or into, custody.
type Escrow struct {
	ledger  *Ledger
	custody ids.ShortID
}

// NewEscrow returns the capability over ledger held by custody.
func NewEscrow(ledger *Ledger, custody ids.ShortID) *Escrow {
	return &Escrow{
		ledger:  ledger,
		custody: custody,
	}
}

// Address returns the custody account.
func (e *Escrow) Address() ids.ShortID {
	return e.custody
}

// BalanceOf returns the balance of addr.
func (e *Escrow) BalanceOf(addr ids.ShortID) *uint256.Int {
	return e.ledger.BalanceOf(addr)
}

// Pull moves amount from an account into custody using that account's
// approval of the custody account.
func (e *Escrow) Pull(from ids.ShortID, amount *uint256.Int) error {
	return e.ledger.TransferFrom(e.custody, from, e.custody, amount)
}

// Push moves amount out of custody to an account.
func (e *Escrow) Push(to ids.ShortID, amount *uint256.Int) error {
	return e.ledger.Transfer(e.custody, to, amount)
}

// Mint creates amount new tokens in custody.
func (e *Escrow) Mint(amount *uint256.Int) error {
	return e.ledger.Mint(e.custody, amount)
}

// Burn destroys amount tokens held in custody.
func (e *Escrow) Burn(amount *uint256.Int) error {
	return e.ledger.Burn(e.custody, amount)
}
