// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/collab/state"

	safemath "github.com/luxfi/collab/utils/math"
)

// NewIssue creates an active issue with no stake and returns its id.
func (l *Ledger) NewIssue(caller ids.ShortID, contentHash string) (uint64, error) {
	var issueID uint64
	err := l.execute("newIssue", func(s *state.State) (transfer, error) {
		if contentHash == "" {
			return nil, ErrInvalidContentHash
		}
		id, err := s.NextIssueID()
		if err != nil {
			return nil, err
		}
		issue := &state.Issue{
			ID:          id,
			ContentHash: contentHash,
			Creator:     caller,
			Active:      true,
		}
		if err := s.PutIssue(issue); err != nil {
			return nil, err
		}

		issueID = id
		l.log.Debug("issue created",
			log.Uint64("issueID", id),
			log.Stringer("creator", caller),
		)
		return nil, nil
	})
	return issueID, err
}

// StakeIssue adds amount to the caller's stake on an active issue.
func (l *Ledger) StakeIssue(caller ids.ShortID, issueID uint64, amount *uint256.Int) error {
	return l.execute("stakeIssue", func(s *state.State) (transfer, error) {
		if amount == nil || amount.IsZero() {
			return nil, ErrZeroAmount
		}
		issue, err := getIssue(s, issueID)
		if err != nil {
			return nil, err
		}
		if !issue.Active {
			return nil, ErrInactiveIssue
		}

		stake, err := s.GetStake(issueID, caller)
		if err != nil {
			return nil, err
		}
		stake, err = safemath.AddAmount(stake, amount)
		if err != nil {
			return nil, err
		}
		total, err := safemath.AddAmount(&issue.TotalStake, amount)
		if err != nil {
			return nil, err
		}
		issue.TotalStake = *total

		if err := s.PutStake(issueID, caller, stake); err != nil {
			return nil, err
		}
		if err := s.PutIssue(issue); err != nil {
			return nil, err
		}

		l.log.Debug("issue staked",
			log.Uint64("issueID", issueID),
			log.Stringer("curator", caller),
			log.String("amount", amount.Dec()),
		)
		return l.pull(caller, amount), nil
	})
}

// WithdrawIssueStake returns the caller's full stake on an inactive issue.
func (l *Ledger) WithdrawIssueStake(caller ids.ShortID, issueID uint64) (*uint256.Int, error) {
	var withdrawn *uint256.Int
	err := l.execute("withdrawIssueStake", func(s *state.State) (transfer, error) {
		issue, err := getIssue(s, issueID)
		if err != nil {
			return nil, err
		}
		if issue.Active {
			return nil, ErrStillActive
		}
		stake, err := s.GetStake(issueID, caller)
		if err != nil {
			return nil, err
		}
		if stake.IsZero() {
			return nil, ErrNoStake
		}

		total, err := safemath.SubAmount(&issue.TotalStake, stake)
		if err != nil {
			return nil, err
		}
		issue.TotalStake = *total
		if err := s.PutStake(issueID, caller, new(uint256.Int)); err != nil {
			return nil, err
		}
		if err := s.PutIssue(issue); err != nil {
			return nil, err
		}

		withdrawn = stake
		l.log.Debug("issue stake withdrawn",
			log.Uint64("issueID", issueID),
			log.Stringer("curator", caller),
			log.String("amount", stake.Dec()),
		)
		return l.push(caller, stake), nil
	})
	if err != nil {
		return nil, err
	}
	return withdrawn, nil
}

// CloseIssue abandons an active issue. Curators may then withdraw their
// stakes. An issue with a merge in progress cannot be closed.
func (l *Ledger) CloseIssue(caller ids.ShortID, issueID uint64) error {
	return l.execute("closeIssue", func(s *state.State) (transfer, error) {
		if err := requireMaintainer(s, caller); err != nil {
			return nil, err
		}
		issue, err := getIssue(s, issueID)
		if err != nil {
			return nil, err
		}
		if !issue.Active {
			return nil, ErrInactiveIssue
		}

		prIDs, err := s.PendingMerges()
		if err != nil {
			return nil, err
		}
		for _, prID := range prIDs {
			pr, err := getPullRequest(s, prID)
			if err != nil {
				return nil, err
			}
			if pr.IssueID == issueID {
				return nil, ErrMergePending
			}
		}

		issue.Active = false
		if err := s.PutIssue(issue); err != nil {
			return nil, err
		}

		l.log.Info("issue closed",
			log.Uint64("issueID", issueID),
			log.Stringer("maintainer", caller),
		)
		return nil, nil
	})
}

// DeleteIssue removes an inactive issue once every curator has withdrawn.
func (l *Ledger) DeleteIssue(caller ids.ShortID, issueID uint64) error {
	return l.execute("deleteIssue", func(s *state.State) (transfer, error) {
		if err := requireMaintainer(s, caller); err != nil {
			return nil, err
		}
		issue, err := getIssue(s, issueID)
		if err != nil {
			return nil, err
		}
		if issue.Active {
			return nil, ErrStillActive
		}
		if !issue.TotalStake.IsZero() {
			return nil, ErrStakeOutstanding
		}
		if err := s.DeleteIssue(issueID); err != nil {
			return nil, err
		}

		l.log.Info("issue deleted",
			log.Uint64("issueID", issueID),
			log.Stringer("maintainer", caller),
		)
		return nil, nil
	})
}

// GetIssue returns the issue with the given id.
func (l *Ledger) GetIssue(issueID uint64) (*state.Issue, error) {
	var issue *state.Issue
	err := l.view(func(s *state.State) error {
		var err error
		issue, err = getIssue(s, issueID)
		return err
	})
	return issue, err
}

// GetIssueStake returns curator's stake on an issue.
func (l *Ledger) GetIssueStake(issueID uint64, curator ids.ShortID) (*uint256.Int, error) {
	var stake *uint256.Int
	err := l.view(func(s *state.State) error {
		if _, err := getIssue(s, issueID); err != nil {
			return err
		}
		var err error
		stake, err = s.GetStake(issueID, curator)
		return err
	})
	return stake, err
}
