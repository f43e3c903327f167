// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the protocol parameters of the governance ledger.
package config

import (
	"errors"
	"time"

	"github.com/luxfi/collab/utils/units"
)

var (
	ErrInvalidPeriod     = errors.New("invalid period configuration")
	ErrInvalidDeposit    = errors.New("invalid deposit configuration")
	ErrInvalidPercentage = errors.New("invalid maintainer percentage")
	ErrInvalidFactor     = errors.New("invalid reward or penalty factor")
)

// Config contains the protocol parameters. Amounts are in atto.
type Config struct {
	// ReviewPeriod is how long a merge-initiated pull request waits before it
	// can be merged. Challenges must be raised inside this window.
	ReviewPeriod time.Duration `json:"reviewPeriod"`
	// CommitPeriod is the length of the commit phase of a voting round.
	CommitPeriod time.Duration `json:"commitPeriod"`
	// RevealPeriod is the length of the reveal phase of a voting round.
	RevealPeriod time.Duration `json:"revealPeriod"`

	// Deposits
	ContributionDeposit uint64 `json:"contributionDeposit"`
	MergeDeposit        uint64 `json:"mergeDeposit"`
	ChallengeDeposit    uint64 `json:"challengeDeposit"`
	VoterDeposit        uint64 `json:"voterDeposit"`

	// MaintainerPercentage of the issue pool goes to the merging maintainer,
	// the rest to the contributor.
	MaintainerPercentage uint64 `json:"maintainerPercentage"`

	// Check-in multipliers, applied as deposit * numerator / FactorDenominator
	// rounded down.
	RewardNumerator   uint64 `json:"rewardNumerator"`
	PenaltyNumerator  uint64 `json:"penaltyNumerator"`
	FactorDenominator uint64 `json:"factorDenominator"`
}

// DefaultConfig returns the default protocol parameters.
func DefaultConfig() Config {
	return Config{
		ReviewPeriod: 24 * time.Hour,
		CommitPeriod: 24 * time.Hour,
		RevealPeriod: 24 * time.Hour,

		ContributionDeposit: units.Token,
		MergeDeposit:        units.Token,
		ChallengeDeposit:    units.Token,
		VoterDeposit:        units.Token,

		MaintainerPercentage: 50,

		RewardNumerator:   105, // x1.05
		PenaltyNumerator:  80,  // x0.80
		FactorDenominator: 100,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ReviewPeriod <= 0 || c.CommitPeriod <= 0 || c.RevealPeriod <= 0 {
		return ErrInvalidPeriod
	}
	// Deadlines are stored with second precision.
	if c.ReviewPeriod%time.Second != 0 || c.CommitPeriod%time.Second != 0 || c.RevealPeriod%time.Second != 0 {
		return ErrInvalidPeriod
	}

	if c.ContributionDeposit == 0 || c.MergeDeposit == 0 || c.ChallengeDeposit == 0 || c.VoterDeposit == 0 {
		return ErrInvalidDeposit
	}

	if c.MaintainerPercentage > 100 {
		return ErrInvalidPercentage
	}

	switch {
	case c.FactorDenominator == 0:
		return ErrInvalidFactor
	case c.RewardNumerator < c.FactorDenominator:
		return ErrInvalidFactor
	case c.PenaltyNumerator > c.FactorDenominator:
		return ErrInvalidFactor
	}
	return nil
}
