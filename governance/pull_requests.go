// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/collab/state"

	safemath "github.com/luxfi/collab/utils/math"
)

// OpenPullRequest opens a pull request against an active issue, holding the
// contribution deposit of the caller.
func (l *Ledger) OpenPullRequest(caller ids.ShortID, issueID uint64, fork string) (uint64, error) {
	var prID uint64
	err := l.execute("openPullRequest", func(s *state.State) (transfer, error) {
		issue, err := getIssue(s, issueID)
		if err != nil {
			return nil, err
		}
		if !issue.Active {
			return nil, ErrInactiveIssue
		}

		id, err := s.NextPullRequestID()
		if err != nil {
			return nil, err
		}
		pr := &state.PullRequest{
			ID:      id,
			IssueID: issueID,
			Creator: caller,
			Fork:    fork,
			Status:  state.Open,
			Deposit: *l.contributionDeposit,
		}
		if err := s.PutPullRequest(pr); err != nil {
			return nil, err
		}

		prID = id
		l.log.Debug("pull request opened",
			log.Uint64("pullRequestID", id),
			log.Uint64("issueID", issueID),
			log.Stringer("contributor", caller),
		)
		return l.pull(caller, l.contributionDeposit), nil
	})
	return prID, err
}

// ClosePullRequest rejects an open pull request. The contribution deposit is
// burned.
func (l *Ledger) ClosePullRequest(caller ids.ShortID, prID uint64) error {
	return l.execute("closePullRequest", func(s *state.State) (transfer, error) {
		if err := requireMaintainer(s, caller); err != nil {
			return nil, err
		}
		pr, err := getPullRequest(s, prID)
		if err != nil {
			return nil, err
		}
		if pr.Status != state.Open {
			return nil, ErrNotOpen
		}

		pr.Status = state.Closed
		if err := s.PutPullRequest(pr); err != nil {
			return nil, err
		}

		l.log.Info("pull request closed",
			log.Uint64("pullRequestID", prID),
			log.Stringer("maintainer", caller),
			log.String("burned", pr.Deposit.Dec()),
		)
		return l.burn(&pr.Deposit), nil
	})
}

// InitMergePullRequest starts the review period of an open pull request. The
// caller puts up the merge deposit and may hold only one merge at a time.
func (l *Ledger) InitMergePullRequest(caller ids.ShortID, prID uint64) error {
	return l.execute("initMergePullRequest", func(s *state.State) (transfer, error) {
		if err := requireMaintainer(s, caller); err != nil {
			return nil, err
		}
		pr, err := getPullRequest(s, prID)
		if err != nil {
			return nil, err
		}
		if pr.Status != state.Open {
			return nil, ErrNotOpen
		}
		issue, err := getIssue(s, pr.IssueID)
		if err != nil {
			return nil, err
		}
		if !issue.Active {
			return nil, ErrInactiveIssue
		}
		if _, pending, err := s.GetPendingMerge(caller); err != nil {
			return nil, err
		} else if pending {
			return nil, ErrMergePending
		}

		now := l.clock.Unix()
		pr.Status = state.MergeInitiated
		pr.Maintainer = caller
		pr.MergeDeposit = *l.mergeDeposit
		pr.MergeInitiatedAt = now
		pr.ChallengeRound = 0
		if err := s.PutPullRequest(pr); err != nil {
			return nil, err
		}
		if err := s.PutPendingMerge(caller, prID); err != nil {
			return nil, err
		}

		l.log.Info("merge initiated",
			log.Uint64("pullRequestID", prID),
			log.Stringer("maintainer", caller),
			log.Uint64("initiatedAt", now),
		)
		return l.pull(caller, l.mergeDeposit), nil
	})
}

// MergePullRequest merges a pull request whose review period has elapsed and
// that has no unresolved challenge. The issue is closed and a pool equal to
// its total stake is minted and owed to the initiating maintainer and the
// contributor, together with their deposits.
func (l *Ledger) MergePullRequest(caller ids.ShortID, prID uint64) error {
	return l.execute("mergePullRequest", func(s *state.State) (transfer, error) {
		if err := requireMaintainer(s, caller); err != nil {
			return nil, err
		}
		pr, err := getPullRequest(s, prID)
		if err != nil {
			return nil, err
		}
		if pr.Status != state.MergeInitiated {
			return nil, ErrNotMergeInitiated
		}
		if pr.ChallengeRound != 0 {
			round, err := getRound(s, pr.ChallengeRound)
			if err != nil {
				return nil, err
			}
			if !round.Resolved {
				return nil, ErrChallengePending
			}
		}
		mergeableAt, err := l.mergeDeadline(pr)
		if err != nil {
			return nil, err
		}
		if l.clock.Unix() < mergeableAt {
			return nil, ErrReviewPeriodNotElapsed
		}

		issue, err := getIssue(s, pr.IssueID)
		if err != nil {
			return nil, err
		}
		pool := issue.TotalStake.Clone()
		maintainerShare, err := safemath.MulDiv(pool, l.cfg.MaintainerPercentage, 100)
		if err != nil {
			return nil, err
		}
		contributorShare, err := safemath.SubAmount(pool, maintainerShare)
		if err != nil {
			return nil, err
		}

		pr.Status = state.Merged
		if err := s.PutPullRequest(pr); err != nil {
			return nil, err
		}
		if err := s.DeletePendingMerge(pr.Maintainer); err != nil {
			return nil, err
		}
		issue.Active = false
		if err := s.PutIssue(issue); err != nil {
			return nil, err
		}

		entitlements := []*state.Entitlement{
			{Account: pr.Maintainer, Kind: state.MaintainerReward, Amount: *maintainerShare},
			{Account: pr.Creator, Kind: state.ContributorReward, Amount: *contributorShare},
			{Account: pr.Maintainer, Kind: state.DepositReturn, Amount: pr.MergeDeposit},
			{Account: pr.Creator, Kind: state.DepositReturn, Amount: pr.Deposit},
		}
		for _, e := range entitlements {
			if e.Amount.IsZero() {
				continue
			}
			e.PullRequestID = prID
			if err := s.AddEntitlement(e); err != nil {
				return nil, err
			}
		}

		l.log.Info("pull request merged",
			log.Uint64("pullRequestID", prID),
			log.Uint64("issueID", pr.IssueID),
			log.Stringer("maintainer", pr.Maintainer),
			log.Stringer("contributor", pr.Creator),
			log.String("pool", pool.Dec()),
		)
		return l.mint(pool), nil
	})
}

// GetPullRequest returns the pull request with the given id.
func (l *Ledger) GetPullRequest(prID uint64) (*state.PullRequest, error) {
	var pr *state.PullRequest
	err := l.view(func(s *state.State) error {
		var err error
		pr, err = getPullRequest(s, prID)
		return err
	})
	return pr, err
}

// mergeDeadline returns the end of the review period of pr.
func (l *Ledger) mergeDeadline(pr *state.PullRequest) (uint64, error) {
	return safemath.Add(pr.MergeInitiatedAt, l.reviewPeriod)
}
