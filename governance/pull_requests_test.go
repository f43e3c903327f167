// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"testing"
	"time"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/collab/state"
)

func TestOpenPullRequest(t *testing.T) {
	require := require.New(t)

	maintainer := ids.GenerateTestShortID()
	contributor := ids.GenerateTestShortID()
	env := newTestEnv(t, maintainer)
	env.fund(t, 10, contributor)

	issueID, err := env.ledger.NewIssue(maintainer, "QmIssue")
	require.NoError(err)

	prID, err := env.ledger.OpenPullRequest(contributor, issueID, "github.com/contributor/fork")
	require.NoError(err)
	require.Zero(prID)

	pr, err := env.ledger.GetPullRequest(prID)
	require.NoError(err)
	require.Equal(state.Open, pr.Status)
	require.Equal(issueID, pr.IssueID)
	require.Equal(contributor, pr.Creator)
	require.Equal("github.com/contributor/fork", pr.Fork)
	require.Equal(tokens(1), &pr.Deposit)
	require.Equal(tokens(9), env.balance(contributor))

	_, err = env.ledger.OpenPullRequest(contributor, issueID+1, "fork")
	require.ErrorIs(err, ErrUnknownIssue)

	require.NoError(env.ledger.CloseIssue(maintainer, issueID))
	_, err = env.ledger.OpenPullRequest(contributor, issueID, "fork")
	require.ErrorIs(err, ErrInactiveIssue)
}

func TestClosePullRequestBurnsDeposit(t *testing.T) {
	require := require.New(t)

	maintainer := ids.GenerateTestShortID()
	contributor := ids.GenerateTestShortID()
	env := newTestEnv(t, maintainer)
	env.fund(t, 10, maintainer, contributor)

	issueID, err := env.ledger.NewIssue(maintainer, "QmIssue")
	require.NoError(err)
	prID, err := env.ledger.OpenPullRequest(contributor, issueID, "fork")
	require.NoError(err)

	err = env.ledger.ClosePullRequest(contributor, prID)
	require.ErrorIs(err, ErrNotMaintainer)
	err = env.ledger.ClosePullRequest(maintainer, prID+1)
	require.ErrorIs(err, ErrUnknownPullRequest)

	require.NoError(env.ledger.ClosePullRequest(maintainer, prID))
	pr, err := env.ledger.GetPullRequest(prID)
	require.NoError(err)
	require.Equal(state.Closed, pr.Status)
	require.True(env.custody().IsZero())
	require.Equal(tokens(1), env.tokens.Burned())
	require.Equal(tokens(9), env.balance(contributor))

	err = env.ledger.ClosePullRequest(maintainer, prID)
	require.ErrorIs(err, ErrNotOpen)
	err = env.ledger.InitMergePullRequest(maintainer, prID)
	require.ErrorIs(err, ErrNotOpen)

	// Closing has no entitlement attached.
	_, err = env.ledger.WithdrawStakes(contributor)
	require.ErrorIs(err, ErrNothingToClaim)
	env.requireConserved(t)
}

func TestInitMergePullRequest(t *testing.T) {
	require := require.New(t)

	maintainer := ids.GenerateTestShortID()
	contributor := ids.GenerateTestShortID()
	env := newTestEnv(t, maintainer)
	env.fund(t, 10, maintainer, contributor)

	issueID, err := env.ledger.NewIssue(maintainer, "QmIssue")
	require.NoError(err)
	prID, err := env.ledger.OpenPullRequest(contributor, issueID, "fork")
	require.NoError(err)

	err = env.ledger.InitMergePullRequest(contributor, prID)
	require.ErrorIs(err, ErrNotMaintainer)

	require.NoError(env.ledger.InitMergePullRequest(maintainer, prID))
	pr, err := env.ledger.GetPullRequest(prID)
	require.NoError(err)
	require.Equal(state.MergeInitiated, pr.Status)
	require.Equal(maintainer, pr.Maintainer)
	require.Equal(tokens(1), &pr.MergeDeposit)
	require.Equal(uint64(testStart.Unix()), pr.MergeInitiatedAt)
	require.Equal(tokens(9), env.balance(maintainer))
	require.Equal(tokens(2), env.custody())

	err = env.ledger.InitMergePullRequest(maintainer, prID)
	require.ErrorIs(err, ErrNotOpen)
}

func TestOnePendingMergePerMaintainer(t *testing.T) {
	require := require.New(t)

	maintainer := ids.GenerateTestShortID()
	other := ids.GenerateTestShortID()
	contributor := ids.GenerateTestShortID()
	env := newTestEnv(t, maintainer, other)
	env.fund(t, 10, maintainer, other, contributor)

	var prIDs []uint64
	for range 2 {
		issueID, err := env.ledger.NewIssue(maintainer, "QmIssue")
		require.NoError(err)
		prID, err := env.ledger.OpenPullRequest(contributor, issueID, "fork")
		require.NoError(err)
		prIDs = append(prIDs, prID)
	}

	require.NoError(env.ledger.InitMergePullRequest(maintainer, prIDs[0]))
	err := env.ledger.InitMergePullRequest(maintainer, prIDs[1])
	require.ErrorIs(err, ErrMergePending)

	// Another maintainer is not blocked.
	require.NoError(env.ledger.InitMergePullRequest(other, prIDs[1]))

	env.clock.Advance(day)
	require.NoError(env.ledger.MergePullRequest(other, prIDs[0]))

	// Merging frees the slot.
	issueID, err := env.ledger.NewIssue(maintainer, "QmIssue")
	require.NoError(err)
	prID, err := env.ledger.OpenPullRequest(contributor, issueID, "fork")
	require.NoError(err)
	require.NoError(env.ledger.InitMergePullRequest(maintainer, prID))
}

func TestMergeReviewBoundary(t *testing.T) {
	require := require.New(t)

	maintainer := ids.GenerateTestShortID()
	contributor := ids.GenerateTestShortID()
	env := newTestEnv(t, maintainer)
	env.fund(t, 10, maintainer, contributor)

	issueID, err := env.ledger.NewIssue(maintainer, "QmIssue")
	require.NoError(err)
	prID, err := env.ledger.OpenPullRequest(contributor, issueID, "fork")
	require.NoError(err)

	err = env.ledger.MergePullRequest(maintainer, prID)
	require.ErrorIs(err, ErrNotMergeInitiated)

	require.NoError(env.ledger.InitMergePullRequest(maintainer, prID))
	env.clock.Advance(day - time.Second)
	err = env.ledger.MergePullRequest(maintainer, prID)
	require.ErrorIs(err, ErrReviewPeriodNotElapsed)

	env.clock.Advance(time.Second)
	err = env.ledger.MergePullRequest(contributor, prID)
	require.ErrorIs(err, ErrNotMaintainer)
	require.NoError(env.ledger.MergePullRequest(maintainer, prID))

	err = env.ledger.MergePullRequest(maintainer, prID)
	require.ErrorIs(err, ErrNotMergeInitiated)
}

func TestMergeWaitsForChallenge(t *testing.T) {
	require := require.New(t)

	s := newScenario(t)
	s.vote(t, map[ids.ShortID]state.Choice{
		s.maintainer: state.Uphold,
		s.curator1:   state.Uphold,
	})

	// The review period is over but the round is not resolved.
	err := s.ledger.MergePullRequest(s.maintainer, s.prID)
	require.ErrorIs(err, ErrChallengePending)

	outcome, err := s.ledger.VoteResult(s.maintainer)
	require.NoError(err)
	require.Equal(state.Uphold, outcome)
	require.NoError(s.ledger.MergePullRequest(s.maintainer, s.prID))
}

func TestUnchallengedMerge(t *testing.T) {
	require := require.New(t)

	maintainer := ids.GenerateTestShortID()
	contributor := ids.GenerateTestShortID()
	curator := ids.GenerateTestShortID()
	env := newTestEnv(t, maintainer)
	env.fund(t, 10, maintainer, contributor)
	env.fund(t, 60, curator)

	issueID, err := env.ledger.NewIssue(curator, "QmIssue")
	require.NoError(err)
	require.NoError(env.ledger.StakeIssue(curator, issueID, tokens(60)))
	prID, err := env.ledger.OpenPullRequest(contributor, issueID, "fork")
	require.NoError(err)
	require.NoError(env.ledger.InitMergePullRequest(maintainer, prID))
	env.clock.Advance(day)
	require.NoError(env.ledger.MergePullRequest(maintainer, prID))

	issue, err := env.ledger.GetIssue(issueID)
	require.NoError(err)
	require.False(issue.Active)
	require.Equal(tokens(60), &issue.TotalStake)

	// 60 staked, 2 deposits and the minted pool of 60.
	require.Equal(tokens(122), env.custody())
	// 80 funded and the pool of 60.
	require.Equal(tokens(140), env.tokens.Minted())
	for _, account := range []ids.ShortID{maintainer, contributor} {
		claimable, err := env.ledger.Claimable(account)
		require.NoError(err)
		require.Equal(tokens(31), claimable)
	}

	entitlements, err := env.ledger.Entitlements(maintainer)
	require.NoError(err)
	require.Len(entitlements, 2)
	require.Equal(state.MaintainerReward, entitlements[0].Kind)
	require.Equal(tokens(30), &entitlements[0].Amount)
	require.Equal(state.DepositReturn, entitlements[1].Kind)
	require.Equal(prID, entitlements[1].PullRequestID)

	paid, err := env.ledger.WithdrawStakes(maintainer)
	require.NoError(err)
	require.Equal(tokens(31), paid)
	require.Equal(tokens(40), env.balance(maintainer))
	paid, err = env.ledger.Reward(contributor, prID)
	require.NoError(err)
	require.Equal(tokens(31), paid)
	require.Equal(tokens(40), env.balance(contributor))

	withdrawn, err := env.ledger.WithdrawIssueStake(curator, issueID)
	require.NoError(err)
	require.Equal(tokens(60), withdrawn)
	require.True(env.custody().IsZero())
	env.requireConserved(t)
}
