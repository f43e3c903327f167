// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token implements the fungible credit consumed by the governance
// ledger: balances, approvals, minting and burning.
package token

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	safemath "github.com/luxfi/collab/utils/math"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient approval")
	ErrSupplyOverflow        = errors.New("total supply overflow")
)

// Ledger is an in-memory fungible token ledger.
type Ledger struct {
	mu sync.RWMutex

	balances   map[ids.ShortID]*uint256.Int
	allowances map[ids.ShortID]map[ids.ShortID]*uint256.Int // owner -> spender -> amount

	totalSupply *uint256.Int
	minted      *uint256.Int
	burned      *uint256.Int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:    make(map[ids.ShortID]*uint256.Int),
		allowances:  make(map[ids.ShortID]map[ids.ShortID]*uint256.Int),
		totalSupply: new(uint256.Int),
		minted:      new(uint256.Int),
		burned:      new(uint256.Int),
	}
}

// BalanceOf returns a copy of the balance of addr.
func (l *Ledger) BalanceOf(addr ids.ShortID) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balanceLocked(addr).Clone()
}

// TotalSupply returns the amount in circulation.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.totalSupply.Clone()
}

// Minted returns the cumulative amount ever minted.
func (l *Ledger) Minted() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.minted.Clone()
}

// Burned returns the cumulative amount ever burned.
func (l *Ledger) Burned() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.burned.Clone()
}

// Allowance returns how much spender may still pull from owner.
func (l *Ledger) Allowance(owner, spender ids.ShortID) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.allowanceLocked(owner, spender).Clone()
}

// Approve sets the amount spender may pull from owner, replacing any previous
// approval.
func (l *Ledger) Approve(owner, spender ids.ShortID, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	spenders, ok := l.allowances[owner]
	if !ok {
		spenders = make(map[ids.ShortID]*uint256.Int)
		l.allowances[owner] = spenders
	}
	spenders[spender] = amount.Clone()
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to ids.ShortID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.transferLocked(from, to, amount)
}

// TransferFrom moves amount from one account to another on behalf of spender,
// consuming spender's approval.
func (l *Ledger) TransferFrom(spender, from, to ids.ShortID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowance := l.allowanceLocked(from, spender)
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := l.transferLocked(from, to, amount); err != nil {
		return err
	}
	l.allowances[from][spender] = new(uint256.Int).Sub(allowance, amount)
	return nil
}

// Mint creates amount new tokens owned by to.
func (l *Ledger) Mint(to ids.ShortID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	supply, err := safemath.AddAmount(l.totalSupply, amount)
	if err != nil {
		return ErrSupplyOverflow
	}
	minted, err := safemath.AddAmount(l.minted, amount)
	if err != nil {
		return ErrSupplyOverflow
	}
	// Every balance is bounded by the supply, so this cannot overflow.
	l.balances[to] = new(uint256.Int).Add(l.balanceLocked(to), amount)
	l.totalSupply = supply
	l.minted = minted
	return nil
}

// Burn destroys amount tokens owned by from.
func (l *Ledger) Burn(from ids.ShortID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balanceLocked(from)
	if balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	burned, err := safemath.AddAmount(l.burned, amount)
	if err != nil {
		return ErrSupplyOverflow
	}
	l.balances[from] = new(uint256.Int).Sub(balance, amount)
	l.totalSupply = new(uint256.Int).Sub(l.totalSupply, amount)
	l.burned = burned
	return nil
}

// SumBalances returns the sum of every balance. It equals TotalSupply.
func (l *Ledger) SumBalances() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sum := new(uint256.Int)
	for _, balance := range l.balances {
		sum.Add(sum, balance)
	}
	return sum
}

func (l *Ledger) transferLocked(from, to ids.ShortID, amount *uint256.Int) error {
	fromBalance := l.balanceLocked(from)
	if fromBalance.Lt(amount) {
		return ErrInsufficientBalance
	}
	l.balances[from] = new(uint256.Int).Sub(fromBalance, amount)
	l.balances[to] = new(uint256.Int).Add(l.balanceLocked(to), amount)
	return nil
}

func (l *Ledger) balanceLocked(addr ids.ShortID) *uint256.Int {
	if balance, ok := l.balances[addr]; ok {
		return balance
	}
	return new(uint256.Int)
}

func (l *Ledger) allowanceLocked(owner, spender ids.ShortID) *uint256.Int {
	if allowance, ok := l.allowances[owner][spender]; ok {
		return allowance
	}
	return new(uint256.Int)
}
