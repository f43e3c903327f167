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

// Reward pays out what the caller is owed for a merged pull request: its
// share of the issue pool and its returned deposit. It pays at most once per
// account and pull request.
func (l *Ledger) Reward(caller ids.ShortID, prID uint64) (*uint256.Int, error) {
	var paid *uint256.Int
	err := l.execute("reward", func(s *state.State) (transfer, error) {
		pr, err := getPullRequest(s, prID)
		if err != nil {
			return nil, err
		}
		if pr.Status != state.Merged {
			return nil, ErrNotMerged
		}
		if pr.HasClaimed(caller) {
			return nil, ErrAlreadyClaimed
		}

		entitlements, err := s.Entitlements(caller)
		if err != nil {
			return nil, err
		}
		total := new(uint256.Int)
		claimed := 0
		for _, e := range entitlements {
			if e.PullRequestID != prID || !e.Kind.IsReward() {
				continue
			}
			total, err = safemath.AddAmount(total, &e.Amount)
			if err != nil {
				return nil, err
			}
			if err := s.DeleteEntitlement(e); err != nil {
				return nil, err
			}
			claimed++
		}
		if claimed == 0 {
			return nil, ErrNoEntitlement
		}

		pr.RewardClaimed = append(pr.RewardClaimed, caller)
		if err := s.PutPullRequest(pr); err != nil {
			return nil, err
		}

		paid = total
		l.log.Info("reward claimed",
			log.Uint64("pullRequestID", prID),
			log.Stringer("account", caller),
			log.String("amount", total.Dec()),
		)
		return l.push(caller, total), nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// WithdrawStakes pays out every outstanding entitlement of the caller:
// rewards, returned deposits and challenge refunds.
func (l *Ledger) WithdrawStakes(caller ids.ShortID) (*uint256.Int, error) {
	var paid *uint256.Int
	err := l.execute("withdrawStakes", func(s *state.State) (transfer, error) {
		entitlements, err := s.Entitlements(caller)
		if err != nil {
			return nil, err
		}
		if len(entitlements) == 0 {
			return nil, ErrNothingToClaim
		}

		total := new(uint256.Int)
		for _, e := range entitlements {
			total, err = safemath.AddAmount(total, &e.Amount)
			if err != nil {
				return nil, err
			}
			if err := s.DeleteEntitlement(e); err != nil {
				return nil, err
			}
			if !e.Kind.IsReward() {
				continue
			}

			// Paying a merge reward here settles the claim Reward would make.
			pr, err := getPullRequest(s, e.PullRequestID)
			if err != nil {
				return nil, err
			}
			if pr.HasClaimed(caller) {
				continue
			}
			pr.RewardClaimed = append(pr.RewardClaimed, caller)
			if err := s.PutPullRequest(pr); err != nil {
				return nil, err
			}
		}

		paid = total
		l.log.Info("stakes withdrawn",
			log.Stringer("account", caller),
			log.Int("entitlements", len(entitlements)),
			log.String("amount", total.Dec()),
		)
		return l.push(caller, total), nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// Claimable returns the sum of every outstanding entitlement of addr.
func (l *Ledger) Claimable(addr ids.ShortID) (*uint256.Int, error) {
	var total *uint256.Int
	err := l.view(func(s *state.State) error {
		entitlements, err := s.Entitlements(addr)
		if err != nil {
			return err
		}
		total = new(uint256.Int)
		for _, e := range entitlements {
			total, err = safemath.AddAmount(total, &e.Amount)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// Entitlements returns the outstanding entitlements of addr.
func (l *Ledger) Entitlements(addr ids.ShortID) ([]*state.Entitlement, error) {
	var entitlements []*state.Entitlement
	err := l.view(func(s *state.State) error {
		var err error
		entitlements, err = s.Entitlements(addr)
		return err
	})
	return entitlements, err
}
