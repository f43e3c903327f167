// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDs(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	for want := uint64(0); want < 3; want++ {
		got, err := s.NextIssueID()
		require.NoError(err)
		require.Equal(want, got)
	}

	prID, err := s.NextPullRequestID()
	require.NoError(err)
	require.Zero(prID)

	roundID, err := s.NextRoundID()
	require.NoError(err)
	require.Equal(uint64(1), roundID)
	roundID, err = s.NextRoundID()
	require.NoError(err)
	require.Equal(uint64(2), roundID)
}

func TestIssueRoundTrip(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	_, err := s.GetIssue(7)
	require.ErrorIs(err, database.ErrNotFound)

	issue := &Issue{
		ID:          7,
		ContentHash: "QmIssue",
		Creator:     ids.GenerateTestShortID(),
		Active:      true,
		TotalStake:  *uint256.NewInt(42),
	}
	require.NoError(s.PutIssue(issue))

	got, err := s.GetIssue(7)
	require.NoError(err)
	require.Equal(issue, got)

	require.NoError(s.DeleteIssue(7))
	_, err = s.GetIssue(7)
	require.ErrorIs(err, database.ErrNotFound)
}

func TestStakes(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()

	stake, err := s.GetStake(0, alice)
	require.NoError(err)
	require.True(stake.IsZero())

	require.NoError(s.PutStake(0, alice, uint256.NewInt(5)))
	require.NoError(s.PutStake(0, bob, uint256.NewInt(3)))
	require.NoError(s.PutStake(1, bob, uint256.NewInt(9)))

	stakes, err := s.Stakes(0)
	require.NoError(err)
	require.Len(stakes, 2)
	require.Equal(uint256.NewInt(5), stakes[alice])
	require.Equal(uint256.NewInt(3), stakes[bob])

	// zero removes the record
	require.NoError(s.PutStake(0, alice, new(uint256.Int)))
	stakes, err = s.Stakes(0)
	require.NoError(err)
	require.Len(stakes, 1)
	require.Contains(stakes, bob)
}

func TestPullRequestAndPendingMerge(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	maintainer := ids.GenerateTestShortID()
	pr := &PullRequest{
		ID:               3,
		IssueID:          1,
		Creator:          ids.GenerateTestShortID(),
		Fork:             "github.com/contributor/fork",
		Status:           MergeInitiated,
		Deposit:          *uint256.NewInt(1),
		Maintainer:       maintainer,
		MergeDeposit:     *uint256.NewInt(1),
		MergeInitiatedAt: 1_000,
		RewardClaimed:    []ids.ShortID{maintainer},
	}
	require.NoError(s.PutPullRequest(pr))
	got, err := s.GetPullRequest(3)
	require.NoError(err)
	require.Equal(pr, got)
	require.True(got.HasClaimed(maintainer))
	require.False(got.HasClaimed(pr.Creator))

	_, ok, err := s.GetPendingMerge(maintainer)
	require.NoError(err)
	require.False(ok)

	require.NoError(s.PutPendingMerge(maintainer, 3))
	prID, ok, err := s.GetPendingMerge(maintainer)
	require.NoError(err)
	require.True(ok)
	require.Equal(uint64(3), prID)

	prIDs, err := s.PendingMerges()
	require.NoError(err)
	require.Equal([]uint64{3}, prIDs)

	require.NoError(s.DeletePendingMerge(maintainer))
	_, ok, err = s.GetPendingMerge(maintainer)
	require.NoError(err)
	require.False(ok)
}

func TestActiveRound(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	_, ok, err := s.GetActiveRound()
	require.NoError(err)
	require.False(ok)

	round := &Round{
		ID:             1,
		PullRequestID:  3,
		Maintainer:     ids.GenerateTestShortID(),
		Challenger:     ids.GenerateTestShortID(),
		Deposit:        *uint256.NewInt(1),
		CommitDeadline: 100,
		RevealDeadline: 200,
	}
	require.NoError(s.PutRound(round))
	require.NoError(s.SetActiveRound(round.ID))

	id, ok, err := s.GetActiveRound()
	require.NoError(err)
	require.True(ok)
	got, err := s.GetRound(id)
	require.NoError(err)
	require.Equal(round, got)

	require.NoError(s.ClearActiveRound())
	_, ok, err = s.GetActiveRound()
	require.NoError(err)
	require.False(ok)
}

func TestVoterDefaultsToEmpty(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	addr := ids.GenerateTestShortID()

	voter, err := s.GetVoter(addr)
	require.NoError(err)
	require.Equal(addr, voter.Address)
	require.True(voter.Deposit.IsZero())
	require.False(voter.Participating())

	voter.Deposit = *uint256.NewInt(10)
	voter.Round = 4
	require.NoError(s.PutVoter(voter))

	got, err := s.GetVoter(addr)
	require.NoError(err)
	require.Equal(voter, got)
	require.True(got.Participating())
}

func TestEntitlementsPerAccount(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()

	for _, e := range []*Entitlement{
		{Account: alice, PullRequestID: 1, Kind: MaintainerReward, Amount: *uint256.NewInt(5)},
		{Account: bob, PullRequestID: 1, Kind: ContributorReward, Amount: *uint256.NewInt(5)},
		{Account: alice, PullRequestID: 1, Kind: DepositReturn, Amount: *uint256.NewInt(1)},
	} {
		require.NoError(s.AddEntitlement(e))
	}

	aliceEntitlements, err := s.Entitlements(alice)
	require.NoError(err)
	require.Len(aliceEntitlements, 2)
	require.Equal(MaintainerReward, aliceEntitlements[0].Kind)
	require.Equal(DepositReturn, aliceEntitlements[1].Kind)
	require.Less(aliceEntitlements[0].ID, aliceEntitlements[1].ID)

	require.NoError(s.DeleteEntitlement(aliceEntitlements[0]))
	aliceEntitlements, err = s.Entitlements(alice)
	require.NoError(err)
	require.Len(aliceEntitlements, 1)

	bobEntitlements, err := s.Entitlements(bob)
	require.NoError(err)
	require.Len(bobEntitlements, 1)
}

func TestMaintainers(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()

	require.NoError(s.AddMaintainer(alice))
	require.NoError(s.AddMaintainer(bob))
	require.NoError(s.RemoveMaintainer(bob))

	isMaintainer, err := s.IsMaintainer(alice)
	require.NoError(err)
	require.True(isMaintainer)
	isMaintainer, err = s.IsMaintainer(bob)
	require.NoError(err)
	require.False(isMaintainer)

	maintainers, err := s.Maintainers()
	require.NoError(err)
	require.Equal(1, maintainers.Len())
	require.True(maintainers.Contains(alice))
}

func TestAbortDiscardsWrites(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	vdb := versiondb.New(base)
	s := New(vdb)
	require.NoError(s.AddMaintainer(ids.GenerateTestShortID()))
	_, err := s.NextIssueID()
	require.NoError(err)
	vdb.Abort()

	s = New(base)
	maintainers, err := s.Maintainers()
	require.NoError(err)
	require.Zero(maintainers.Len())
	id, err := s.NextIssueID()
	require.NoError(err)
	require.Zero(id)
}
