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

// Deposit adds the voter deposit to the caller's stake, registering the caller
// as a voter. The deposit is the weight of the caller's votes, so it is frozen
// from the first commit until the round is checked in.
func (l *Ledger) Deposit(caller ids.ShortID) error {
	return l.execute("deposit", func(s *state.State) (transfer, error) {
		voter, err := s.GetVoter(caller)
		if err != nil {
			return nil, err
		}
		if voter.Participating() {
			return nil, ErrMustCheckInFirst
		}
		deposit, err := safemath.AddAmount(&voter.Deposit, l.voterDeposit)
		if err != nil {
			return nil, err
		}
		voter.Deposit = *deposit
		if err := s.PutVoter(voter); err != nil {
			return nil, err
		}

		l.log.Debug("voter deposited",
			log.Stringer("voter", caller),
			log.String("deposit", deposit.Dec()),
		)
		return l.pull(caller, l.voterDeposit), nil
	})
}

// VoterCheckIn settles the caller's last round and returns the resulting
// deposit. A voter who revealed the outcome is rewarded, one who revealed the
// other choice is penalized, and one who never revealed is unchanged.
func (l *Ledger) VoterCheckIn(caller ids.ShortID) (*uint256.Int, error) {
	var settled *uint256.Int
	err := l.execute("voterCheckIn", func(s *state.State) (transfer, error) {
		voter, err := s.GetVoter(caller)
		if err != nil {
			return nil, err
		}
		if voter.Round == 0 {
			return nil, ErrDidNotParticipate
		}
		if voter.CheckedIn {
			return nil, ErrAlreadyCheckedIn
		}
		round, err := getRound(s, voter.Round)
		if err != nil {
			return nil, err
		}
		if !round.Resolved {
			return nil, ErrRoundNotResolved
		}

		var (
			previous = voter.Deposit.Clone()
			deposit  = previous
			move     transfer
		)
		switch {
		case !voter.Revealed:
		case voter.Choice == round.Outcome:
			deposit, err = safemath.MulDiv(previous, l.cfg.RewardNumerator, l.cfg.FactorDenominator)
			if err != nil {
				return nil, err
			}
			reward, err := safemath.SubAmount(deposit, previous)
			if err != nil {
				return nil, err
			}
			move = l.mint(reward)
		default:
			deposit, err = safemath.MulDiv(previous, l.cfg.PenaltyNumerator, l.cfg.FactorDenominator)
			if err != nil {
				return nil, err
			}
			penalty, err := safemath.SubAmount(previous, deposit)
			if err != nil {
				return nil, err
			}
			move = l.burn(penalty)
		}

		voter.Deposit = *deposit
		voter.CheckedIn = true
		voter.LastRoundCheckedIn = voter.Round
		if err := s.PutVoter(voter); err != nil {
			return nil, err
		}

		settled = deposit
		l.log.Debug("voter checked in",
			log.Stringer("voter", caller),
			log.Uint64("roundID", round.ID),
			log.Bool("revealed", voter.Revealed),
			log.String("previous", previous.Dec()),
			log.String("deposit", deposit.Dec()),
		)
		return move, nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// VoterWithdraw pays out the caller's whole deposit. A voter with an unsettled
// round must check in first.
func (l *Ledger) VoterWithdraw(caller ids.ShortID) (*uint256.Int, error) {
	var withdrawn *uint256.Int
	err := l.execute("voterWithdraw", func(s *state.State) (transfer, error) {
		voter, err := s.GetVoter(caller)
		if err != nil {
			return nil, err
		}
		if voter.Deposit.IsZero() {
			return nil, ErrNoDeposit
		}
		if voter.Participating() {
			return nil, ErrMustCheckInFirst
		}

		withdrawn = voter.Deposit.Clone()
		voter.Deposit.Clear()
		if err := s.PutVoter(voter); err != nil {
			return nil, err
		}

		l.log.Debug("voter withdrew",
			log.Stringer("voter", caller),
			log.String("amount", withdrawn.Dec()),
		)
		return l.push(caller, withdrawn), nil
	})
	if err != nil {
		return nil, err
	}
	return withdrawn, nil
}

// GetVoter returns the voter record of addr.
func (l *Ledger) GetVoter(addr ids.ShortID) (*state.Voter, error) {
	var voter *state.Voter
	err := l.view(func(s *state.State) error {
		var err error
		voter, err = s.GetVoter(addr)
		return err
	})
	return voter, err
}
