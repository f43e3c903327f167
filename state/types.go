// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
)

// Status is the lifecycle state of a pull request.
type Status uint8

const (
	Open Status = iota
	Closed
	MergeInitiated
	Merged
)

func (s Status) String() string {
	switch s {
	case Open:
		return "Open"
	case Closed:
		return "Closed"
	case MergeInitiated:
		return "MergeInitiated"
	case Merged:
		return "Merged"
	default:
		return "Invalid"
	}
}

// Choice is a vote choice and, once a round resolves, its outcome.
type Choice uint8

const (
	NoChoice Choice = iota
	Uphold
	Veto
)

func (c Choice) String() string {
	switch c {
	case NoChoice:
		return "None"
	case Uphold:
		return "Uphold"
	case Veto:
		return "Veto"
	default:
		return "Invalid"
	}
}

// EntitlementKind names why an amount is owed to an account.
type EntitlementKind uint8

const (
	MaintainerReward EntitlementKind = iota + 1
	ContributorReward
	DepositReturn
	ChallengeRefund
)

func (k EntitlementKind) String() string {
	switch k {
	case MaintainerReward:
		return "MaintainerReward"
	case ContributorReward:
		return "ContributorReward"
	case DepositReturn:
		return "DepositReturn"
	case ChallengeRefund:
		return "ChallengeRefund"
	default:
		return "Invalid"
	}
}

// IsReward reports whether the entitlement is paid out for a merge.
func (k EntitlementKind) IsReward() bool {
	return k == MaintainerReward || k == ContributorReward || k == DepositReturn
}

// Issue is a unit of work curators stake on. TotalStake always equals the sum
// of the issue's stake records.
type Issue struct {
	ID          uint64      `serialize:"true"`
	ContentHash string      `serialize:"true"`
	Creator     ids.ShortID `serialize:"true"`
	Active      bool        `serialize:"true"`
	TotalStake  uint256.Int `serialize:"true"`
}

// PullRequest is a contribution against an issue.
type PullRequest struct {
	ID      uint64      `serialize:"true"`
	IssueID uint64      `serialize:"true"`
	Creator ids.ShortID `serialize:"true"`
	Fork    string      `serialize:"true"`
	Status  Status      `serialize:"true"`
	Deposit uint256.Int `serialize:"true"`

	// Set while MergeInitiated.
	Maintainer       ids.ShortID `serialize:"true"`
	MergeDeposit     uint256.Int `serialize:"true"`
	MergeInitiatedAt uint64      `serialize:"true"`

	// ChallengeRound is the round opened against the current merge attempt,
	// zero if none.
	ChallengeRound uint64 `serialize:"true"`

	RewardClaimed []ids.ShortID `serialize:"true"`
}

// HasClaimed reports whether addr already claimed its merge reward.
func (p *PullRequest) HasClaimed(addr ids.ShortID) bool {
	for _, claimant := range p.RewardClaimed {
		if claimant == addr {
			return true
		}
	}
	return false
}

// Round is a challenge and its commit-reveal vote. Deadlines are unix seconds.
type Round struct {
	ID             uint64      `serialize:"true"`
	PullRequestID  uint64      `serialize:"true"`
	Maintainer     ids.ShortID `serialize:"true"`
	Challenger     ids.ShortID `serialize:"true"`
	Deposit        uint256.Int `serialize:"true"`
	CommitDeadline uint64      `serialize:"true"`
	RevealDeadline uint64      `serialize:"true"`
	TallyUphold    uint256.Int `serialize:"true"`
	TallyVeto      uint256.Int `serialize:"true"`
	Resolved       bool        `serialize:"true"`
	Outcome        Choice      `serialize:"true"`
}

// Voter is a registered voter's deposit and participation in its most recent
// round.
type Voter struct {
	Address ids.ShortID `serialize:"true"`
	Deposit uint256.Int `serialize:"true"`

	// Round is the last round the voter committed in, zero if never.
	Round      uint64 `serialize:"true"`
	Commitment ids.ID `serialize:"true"`
	Revealed   bool   `serialize:"true"`
	Choice     Choice `serialize:"true"`
	CheckedIn  bool   `serialize:"true"`

	LastRoundCheckedIn uint64 `serialize:"true"`
}

// Participating reports whether the voter has an unsettled round.
func (v *Voter) Participating() bool {
	return v.Round != 0 && !v.CheckedIn
}

// Entitlement is an amount owed to Account, claimable on demand.
type Entitlement struct {
	ID            uint64          `serialize:"true"`
	Account       ids.ShortID     `serialize:"true"`
	PullRequestID uint64          `serialize:"true"`
	Kind          EntitlementKind `serialize:"true"`
	Amount        uint256.Int     `serialize:"true"`
}
