// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"errors"
	"fmt"

	"github.com/luxfi/collab/token"
)

// Failure categories. Every error returned by Ledger matches exactly one of
// them with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidState         = errors.New("invalid state")
	ErrTimingViolation      = errors.New("timing violation")
	ErrInsufficientFunds    = token.ErrInsufficientBalance
	ErrInsufficientApproval = token.ErrInsufficientAllowance
	ErrCommitRevealMismatch = errors.New("commit-reveal mismatch")
	ErrAlreadyClaimed       = errors.New("already claimed")
	ErrAlreadyCheckedIn     = errors.New("already checked in")
	ErrArithmeticOverflow   = errors.New("arithmetic overflow")
)

var (
	ErrUnknownIssue       = fmt.Errorf("%w: unknown issue", ErrNotFound)
	ErrUnknownPullRequest = fmt.Errorf("%w: unknown pull request", ErrNotFound)
	ErrUnknownRound       = fmt.Errorf("%w: unknown round", ErrNotFound)
	ErrNoEntitlement      = fmt.Errorf("%w: no entitlement for pull request", ErrNotFound)
	ErrNothingToClaim     = fmt.Errorf("%w: nothing to claim", ErrNotFound)

	ErrNotMaintainer = fmt.Errorf("%w: caller is not a maintainer", ErrUnauthorized)
	ErrNotVoter      = fmt.Errorf("%w: caller has no voter deposit", ErrUnauthorized)

	ErrInvalidContentHash = fmt.Errorf("%w: empty content hash", ErrInvalidState)
	ErrZeroAmount         = fmt.Errorf("%w: zero amount", ErrInvalidState)
	ErrInactiveIssue      = fmt.Errorf("%w: issue is inactive", ErrInvalidState)
	ErrStillActive        = fmt.Errorf("%w: issue is still active", ErrInvalidState)
	ErrNoStake            = fmt.Errorf("%w: no stake on issue", ErrInvalidState)
	ErrStakeOutstanding   = fmt.Errorf("%w: issue still holds curator stake", ErrInvalidState)
	ErrMergePending       = fmt.Errorf("%w: merge already initiated", ErrInvalidState)
	ErrNotOpen            = fmt.Errorf("%w: pull request is not open", ErrInvalidState)
	ErrNotMergeInitiated  = fmt.Errorf("%w: pull request is not merge-initiated", ErrInvalidState)
	ErrNotMerged          = fmt.Errorf("%w: pull request is not merged", ErrInvalidState)
	ErrChallengePending   = fmt.Errorf("%w: challenge pending", ErrInvalidState)
	ErrNotInMergeWindow   = fmt.Errorf("%w: no challengeable merge", ErrInvalidState)
	ErrAlreadyChallenged  = fmt.Errorf("%w: already challenged", ErrInvalidState)
	ErrNoActiveRound      = fmt.Errorf("%w: no active voting round", ErrInvalidState)
	ErrNoCommitment       = fmt.Errorf("%w: no commitment in this round", ErrInvalidState)
	ErrAlreadyRevealed    = fmt.Errorf("%w: vote already revealed", ErrInvalidState)
	ErrInvalidChoice      = fmt.Errorf("%w: invalid choice tag", ErrInvalidState)
	ErrMustCheckInFirst   = fmt.Errorf("%w: voter must check in first", ErrInvalidState)
	ErrDidNotParticipate  = fmt.Errorf("%w: voter did not participate", ErrInvalidState)
	ErrNoDeposit          = fmt.Errorf("%w: no voter deposit", ErrInvalidState)
	ErrNoMaintainers      = fmt.Errorf("%w: no maintainers registered", ErrInvalidState)

	ErrReviewPeriodNotElapsed = fmt.Errorf("%w: review period not elapsed", ErrTimingViolation)
	ErrCommitPhaseOver        = fmt.Errorf("%w: commit phase over", ErrTimingViolation)
	ErrRevealPhaseNotStarted  = fmt.Errorf("%w: reveal phase not started", ErrTimingViolation)
	ErrRevealPhaseOver        = fmt.Errorf("%w: reveal phase over", ErrTimingViolation)
	ErrVotingNotOver          = fmt.Errorf("%w: voting not over", ErrTimingViolation)
	ErrRoundNotResolved       = fmt.Errorf("%w: round not resolved", ErrTimingViolation)

	ErrRevealMismatch = fmt.Errorf("%w: reveal does not match commitment", ErrCommitRevealMismatch)
)
