// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/luxfi/collab/config"
	"github.com/luxfi/collab/state"
	"github.com/luxfi/collab/token"
	"github.com/luxfi/collab/token/tokenmock"
	"github.com/luxfi/collab/utils/timer/mockable"
	"github.com/luxfi/collab/utils/units"
)

var (
	testStart = time.Unix(1_700_000_000, 0)
	day       = 24 * time.Hour

	errTest = errors.New("non-nil error")
)

type testEnv struct {
	ledger   *Ledger
	tokens   *token.Ledger
	escrow   *token.Escrow
	clock    *mockable.Clock
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T, maintainers ...ids.ShortID) *testEnv {
	t.Helper()

	tokens := token.NewLedger()
	escrow := token.NewEscrow(tokens, ids.GenerateTestShortID())
	clock := mockable.NewClock(testStart)
	registry := prometheus.NewRegistry()

	ledger, err := New(
		config.DefaultConfig(),
		memdb.New(),
		escrow,
		clock,
		log.NewNoOpLogger(),
		registry,
		maintainers...,
	)
	require.NoError(t, err)

	return &testEnv{
		ledger:   ledger,
		tokens:   tokens,
		escrow:   escrow,
		clock:    clock,
		registry: registry,
	}
}

// fund mints n whole tokens to each account and approves custody to spend
// all of them.
func (e *testEnv) fund(t *testing.T, n uint64, accounts ...ids.ShortID) {
	t.Helper()

	for _, addr := range accounts {
		require.NoError(t, e.tokens.Mint(addr, units.Tokens(n)))
		e.tokens.Approve(addr, e.escrow.Address(), new(uint256.Int).SetAllOne())
	}
}

func (e *testEnv) balance(addr ids.ShortID) *uint256.Int {
	return e.tokens.BalanceOf(addr)
}

func (e *testEnv) custody() *uint256.Int {
	return e.tokens.BalanceOf(e.escrow.Address())
}

// requireConserved checks that tokens only appeared by minting and only
// vanished by burning.
func (e *testEnv) requireConserved(t *testing.T) {
	t.Helper()

	supply := e.tokens.TotalSupply()
	require.Equal(t, supply, e.tokens.SumBalances())
	require.Equal(t, new(uint256.Int).Sub(e.tokens.Minted(), e.tokens.Burned()), supply)
}

func tokens(n uint64) *uint256.Int {
	return units.Tokens(n)
}

func atto(n uint64) *uint256.Int {
	return uint256.NewInt(n)
}

func TestNewRegistersGenesisMaintainersOnce(t *testing.T) {
	require := require.New(t)

	alice := ids.GenerateTestShortID()
	bob := ids.GenerateTestShortID()
	db := memdb.New()
	escrow := token.NewEscrow(token.NewLedger(), ids.GenerateTestShortID())
	clock := mockable.NewClock(testStart)

	ledger, err := New(config.DefaultConfig(), db, escrow, clock, log.NewNoOpLogger(), prometheus.NewRegistry(), alice)
	require.NoError(err)
	isMaintainer, err := ledger.IsMaintainer(alice)
	require.NoError(err)
	require.True(isMaintainer)

	// Reopening an initialized database ignores the genesis list.
	ledger, err = New(config.DefaultConfig(), db, escrow, clock, log.NewNoOpLogger(), prometheus.NewRegistry(), bob)
	require.NoError(err)
	maintainers, err := ledger.Maintainers()
	require.NoError(err)
	require.Equal(1, maintainers.Len())
	require.True(maintainers.Contains(alice))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	require := require.New(t)

	cfg := config.DefaultConfig()
	cfg.MaintainerPercentage = 101
	escrow := token.NewEscrow(token.NewLedger(), ids.GenerateTestShortID())

	_, err := New(cfg, memdb.New(), escrow, mockable.NewClock(testStart), log.NewNoOpLogger(), prometheus.NewRegistry())
	require.ErrorIs(err, config.ErrInvalidPercentage)
}

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		err      error
		category error
	}{
		{ErrUnknownIssue, ErrNotFound},
		{ErrUnknownPullRequest, ErrNotFound},
		{ErrUnknownRound, ErrNotFound},
		{ErrNoEntitlement, ErrNotFound},
		{ErrNothingToClaim, ErrNotFound},
		{ErrNotMaintainer, ErrUnauthorized},
		{ErrNotVoter, ErrUnauthorized},
		{ErrInactiveIssue, ErrInvalidState},
		{ErrStillActive, ErrInvalidState},
		{ErrNoStake, ErrInvalidState},
		{ErrNotOpen, ErrInvalidState},
		{ErrChallengePending, ErrInvalidState},
		{ErrNotInMergeWindow, ErrInvalidState},
		{ErrAlreadyChallenged, ErrInvalidState},
		{ErrMustCheckInFirst, ErrInvalidState},
		{ErrDidNotParticipate, ErrInvalidState},
		{ErrReviewPeriodNotElapsed, ErrTimingViolation},
		{ErrCommitPhaseOver, ErrTimingViolation},
		{ErrRevealPhaseNotStarted, ErrTimingViolation},
		{ErrRevealPhaseOver, ErrTimingViolation},
		{ErrVotingNotOver, ErrTimingViolation},
		{ErrRoundNotResolved, ErrTimingViolation},
		{ErrRevealMismatch, ErrCommitRevealMismatch},
		{token.ErrInsufficientBalance, ErrInsufficientFunds},
		{token.ErrInsufficientAllowance, ErrInsufficientApproval},
	}
	for _, test := range tests {
		t.Run(test.err.Error(), func(t *testing.T) {
			require.ErrorIs(t, test.err, test.category)
		})
	}
}

func TestFailedPullLeavesNoTrace(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	escrow := tokenmock.NewCapability(ctrl)
	ledger, err := New(
		config.DefaultConfig(),
		memdb.New(),
		escrow,
		mockable.NewClock(testStart),
		log.NewNoOpLogger(),
		prometheus.NewRegistry(),
	)
	require.NoError(err)

	curator := ids.GenerateTestShortID()
	issueID, err := ledger.NewIssue(curator, "QmIssue")
	require.NoError(err)

	escrow.EXPECT().Pull(curator, tokens(2)).Return(token.ErrInsufficientAllowance)
	err = ledger.StakeIssue(curator, issueID, tokens(2))
	require.ErrorIs(err, ErrInsufficientApproval)

	issue, err := ledger.GetIssue(issueID)
	require.NoError(err)
	require.True(issue.TotalStake.IsZero())
	stake, err := ledger.GetIssueStake(issueID, curator)
	require.NoError(err)
	require.True(stake.IsZero())

	// The next id is unaffected by the aborted operation.
	escrow.EXPECT().Pull(curator, tokens(1)).Return(token.ErrInsufficientBalance)
	_, err = ledger.OpenPullRequest(curator, issueID, "fork")
	require.ErrorIs(err, ErrInsufficientFunds)
	_, err = ledger.GetPullRequest(0)
	require.ErrorIs(err, ErrUnknownPullRequest)

	escrow.EXPECT().Pull(curator, tokens(1)).Return(nil)
	prID, err := ledger.OpenPullRequest(curator, issueID, "fork")
	require.NoError(err)
	require.Zero(prID)
}

func TestFailedPayoutKeepsEntitlement(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	escrow := tokenmock.NewCapability(ctrl)
	clock := mockable.NewClock(testStart)
	maintainer := ids.GenerateTestShortID()
	contributor := ids.GenerateTestShortID()
	ledger, err := New(
		config.DefaultConfig(),
		memdb.New(),
		escrow,
		clock,
		log.NewNoOpLogger(),
		prometheus.NewRegistry(),
		maintainer,
	)
	require.NoError(err)

	escrow.EXPECT().Pull(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	issueID, err := ledger.NewIssue(maintainer, "QmIssue")
	require.NoError(err)
	prID, err := ledger.OpenPullRequest(contributor, issueID, "fork")
	require.NoError(err)
	require.NoError(ledger.InitMergePullRequest(maintainer, prID))
	clock.Advance(day)
	require.NoError(ledger.MergePullRequest(maintainer, prID))

	escrow.EXPECT().Push(contributor, tokens(1)).Return(errTest)
	_, err = ledger.WithdrawStakes(contributor)
	require.ErrorIs(err, errTest)

	claimable, err := ledger.Claimable(contributor)
	require.NoError(err)
	require.Equal(tokens(1), claimable)
	pr, err := ledger.GetPullRequest(prID)
	require.NoError(err)
	require.False(pr.HasClaimed(contributor))

	escrow.EXPECT().Push(contributor, tokens(1)).Return(nil)
	paid, err := ledger.WithdrawStakes(contributor)
	require.NoError(err)
	require.Equal(tokens(1), paid)
}

func TestFailedBurnKeepsPullRequestOpen(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	escrow := tokenmock.NewCapability(ctrl)
	maintainer := ids.GenerateTestShortID()
	ledger, err := New(
		config.DefaultConfig(),
		memdb.New(),
		escrow,
		mockable.NewClock(testStart),
		log.NewNoOpLogger(),
		prometheus.NewRegistry(),
		maintainer,
	)
	require.NoError(err)

	escrow.EXPECT().Pull(gomock.Any(), gomock.Any()).Return(nil)
	issueID, err := ledger.NewIssue(maintainer, "QmIssue")
	require.NoError(err)
	prID, err := ledger.OpenPullRequest(ids.GenerateTestShortID(), issueID, "fork")
	require.NoError(err)

	escrow.EXPECT().Burn(tokens(1)).Return(errTest)
	require.ErrorIs(ledger.ClosePullRequest(maintainer, prID), errTest)

	pr, err := ledger.GetPullRequest(prID)
	require.NoError(err)
	require.Equal(state.Open, pr.Status)
}

// failingCommitDB fails every batch write once fail is set.
type failingCommitDB struct {
	database.Database
	fail bool
}

func (db *failingCommitDB) NewBatch() database.Batch {
	return &failingBatch{Batch: db.Database.NewBatch(), db: db}
}

type failingBatch struct {
	database.Batch
	db *failingCommitDB
}

func (b *failingBatch) Write() error {
	if b.db.fail {
		return errTest
	}
	return b.Batch.Write()
}

func TestFailedCommitAfterTransfer(t *testing.T) {
	require := require.New(t)

	db := &failingCommitDB{Database: memdb.New()}
	balances := token.NewLedger()
	escrow := token.NewEscrow(balances, ids.GenerateTestShortID())
	registry := prometheus.NewRegistry()
	ledger, err := New(
		config.DefaultConfig(),
		db,
		escrow,
		mockable.NewClock(testStart),
		log.NewNoOpLogger(),
		registry,
	)
	require.NoError(err)

	voter := ids.GenerateTestShortID()
	require.NoError(balances.Mint(voter, units.Tokens(1)))
	balances.Approve(voter, escrow.Address(), units.Tokens(1))

	db.fail = true
	require.ErrorIs(ledger.Deposit(voter), errTest)

	// The pull already happened, the voter record did not survive.
	require.True(balances.BalanceOf(voter).IsZero())
	require.Equal(units.Tokens(1), balances.BalanceOf(escrow.Address()))
	record, err := ledger.GetVoter(voter)
	require.NoError(err)
	require.True(record.Deposit.IsZero())
	require.Equal(1.0, testutil.ToFloat64(ledger.metrics.operations.WithLabelValues("deposit", "failure")))
}

func TestMetrics(t *testing.T) {
	require := require.New(t)

	maintainer := ids.GenerateTestShortID()
	env := newTestEnv(t, maintainer)
	env.fund(t, 10, maintainer)

	_, err := env.ledger.NewIssue(maintainer, "")
	require.ErrorIs(err, ErrInvalidContentHash)
	issueID, err := env.ledger.NewIssue(maintainer, "QmIssue")
	require.NoError(err)
	prID, err := env.ledger.OpenPullRequest(maintainer, issueID, "fork")
	require.NoError(err)
	require.NoError(env.ledger.ClosePullRequest(maintainer, prID))

	m := env.ledger.metrics
	require.InDelta(1, testutil.ToFloat64(m.operations.WithLabelValues("newIssue", resultSuccess)), 0)
	require.InDelta(1, testutil.ToFloat64(m.operations.WithLabelValues("newIssue", resultFailure)), 0)
	require.InDelta(1, testutil.ToFloat64(m.burned), 0)
	require.InDelta(0, testutil.ToFloat64(m.minted), 0)

	// genesis, newIssue twice, openPullRequest and closePullRequest
	count, err := testutil.GatherAndCount(env.registry, "collab_operations_total")
	require.NoError(err)
	require.Equal(5, count)
}
