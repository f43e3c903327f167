// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/collab/state"

	safemath "github.com/luxfi/collab/utils/math"
)

// Challenge disputes the merge maintainer has initiated and opens a voting
// round on it. The caller must be a voter and puts up the challenge deposit.
// Only one round may be active at a time and each merge attempt may be
// challenged once, inside its review period.
func (l *Ledger) Challenge(caller, maintainer ids.ShortID) (uint64, error) {
	var roundID uint64
	err := l.execute("challenge", func(s *state.State) (transfer, error) {
		voter, err := s.GetVoter(caller)
		if err != nil {
			return nil, err
		}
		if voter.Deposit.IsZero() {
			return nil, ErrNotVoter
		}
		if _, ok, err := s.GetActiveRound(); err != nil {
			return nil, err
		} else if ok {
			return nil, ErrAlreadyChallenged
		}

		prID, ok, err := s.GetPendingMerge(maintainer)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotInMergeWindow
		}
		pr, err := getPullRequest(s, prID)
		if err != nil {
			return nil, err
		}
		if pr.ChallengeRound != 0 {
			return nil, ErrAlreadyChallenged
		}
		mergeableAt, err := l.mergeDeadline(pr)
		if err != nil {
			return nil, err
		}
		now := l.clock.Unix()
		if now >= mergeableAt {
			return nil, ErrNotInMergeWindow
		}

		commitDeadline, err := safemath.Add(now, l.commitPeriod)
		if err != nil {
			return nil, err
		}
		revealDeadline, err := safemath.Add(commitDeadline, l.revealPeriod)
		if err != nil {
			return nil, err
		}
		id, err := s.NextRoundID()
		if err != nil {
			return nil, err
		}
		round := &state.Round{
			ID:             id,
			PullRequestID:  prID,
			Maintainer:     maintainer,
			Challenger:     caller,
			Deposit:        *l.challengeDeposit,
			CommitDeadline: commitDeadline,
			RevealDeadline: revealDeadline,
		}
		if err := s.PutRound(round); err != nil {
			return nil, err
		}
		if err := s.SetActiveRound(id); err != nil {
			return nil, err
		}
		pr.ChallengeRound = id
		if err := s.PutPullRequest(pr); err != nil {
			return nil, err
		}

		roundID = id
		l.log.Info("merge challenged",
			log.Uint64("roundID", id),
			log.Uint64("pullRequestID", prID),
			log.Stringer("maintainer", maintainer),
			log.Stringer("challenger", caller),
			log.Uint64("commitDeadline", commitDeadline),
			log.Uint64("revealDeadline", revealDeadline),
		)
		return l.pull(caller, l.challengeDeposit), nil
	})
	if err == nil {
		l.metrics.activeRound.Set(float64(roundID))
	}
	return roundID, err
}

// CommitVote records the caller's commitment in the active round. A later
// commit in the same round replaces an earlier one.
func (l *Ledger) CommitVote(caller ids.ShortID, commitment ids.ID) error {
	return l.execute("commitVote", func(s *state.State) (transfer, error) {
		voter, err := s.GetVoter(caller)
		if err != nil {
			return nil, err
		}
		if voter.Deposit.IsZero() {
			return nil, ErrNotVoter
		}
		round, err := activeRound(s)
		if err != nil {
			return nil, err
		}
		if l.clock.Unix() >= round.CommitDeadline {
			return nil, ErrCommitPhaseOver
		}

		if voter.Round != round.ID {
			if voter.Participating() {
				return nil, ErrMustCheckInFirst
			}
			voter.Round = round.ID
			voter.Revealed = false
			voter.Choice = state.NoChoice
			voter.CheckedIn = false
		}
		voter.Commitment = commitment
		if err := s.PutVoter(voter); err != nil {
			return nil, err
		}

		l.log.Debug("vote committed",
			log.Uint64("roundID", round.ID),
			log.Stringer("voter", caller),
		)
		return nil, nil
	})
}

// RevealVote opens the caller's commitment in the active round and adds the
// caller's deposit to the tally of the revealed choice.
func (l *Ledger) RevealVote(caller ids.ShortID, preimage []byte) error {
	return l.execute("revealVote", func(s *state.State) (transfer, error) {
		round, err := activeRound(s)
		if err != nil {
			return nil, err
		}
		voter, err := s.GetVoter(caller)
		if err != nil {
			return nil, err
		}
		if voter.Round != round.ID {
			return nil, ErrNoCommitment
		}
		now := l.clock.Unix()
		if now < round.CommitDeadline {
			return nil, ErrRevealPhaseNotStarted
		}
		if now >= round.RevealDeadline {
			return nil, ErrRevealPhaseOver
		}
		if voter.Revealed {
			return nil, ErrAlreadyRevealed
		}
		if !VerifyCommitment(voter.Commitment, preimage) {
			l.log.Warn("reveal does not match commitment",
				log.Uint64("roundID", round.ID),
				log.Stringer("voter", caller),
			)
			return nil, ErrRevealMismatch
		}
		choice, _, err := DecodeVote(preimage)
		if err != nil {
			return nil, err
		}

		tally := &round.TallyVeto
		if choice == state.Uphold {
			tally = &round.TallyUphold
		}
		sum, err := safemath.AddAmount(tally, &voter.Deposit)
		if err != nil {
			return nil, err
		}
		*tally = *sum
		if err := s.PutRound(round); err != nil {
			return nil, err
		}
		voter.Revealed = true
		voter.Choice = choice
		if err := s.PutVoter(voter); err != nil {
			return nil, err
		}

		l.log.Debug("vote revealed",
			log.Uint64("roundID", round.ID),
			log.Stringer("voter", caller),
			log.Stringer("choice", choice),
			log.String("weight", voter.Deposit.Dec()),
		)
		return nil, nil
	})
}

// VoteResult resolves the active round once its reveal phase is over. The
// merge is upheld only by a strict majority of revealed stake; a tie vetoes.
//
// Upheld: the challenger's deposit is burned and the merge may proceed.
// Vetoed: the maintainer's merge deposit is burned, the maintainer is removed,
// the pull request reopens and the challenger's deposit is owed back.
func (l *Ledger) VoteResult(caller ids.ShortID) (state.Choice, error) {
	var outcome state.Choice
	err := l.execute("voteResult", func(s *state.State) (transfer, error) {
		round, err := activeRound(s)
		if err != nil {
			return nil, err
		}
		if l.clock.Unix() < round.RevealDeadline {
			return nil, ErrVotingNotOver
		}

		outcome = state.Veto
		if round.TallyUphold.Gt(&round.TallyVeto) {
			outcome = state.Uphold
		}
		round.Resolved = true
		round.Outcome = outcome
		if err := s.PutRound(round); err != nil {
			return nil, err
		}
		if err := s.ClearActiveRound(); err != nil {
			return nil, err
		}

		l.log.Info("vote resolved",
			log.Uint64("roundID", round.ID),
			log.Uint64("pullRequestID", round.PullRequestID),
			log.Stringer("outcome", outcome),
			log.String("uphold", round.TallyUphold.Dec()),
			log.String("veto", round.TallyVeto.Dec()),
			log.Stringer("resolvedBy", caller),
		)

		if outcome == state.Uphold {
			return l.burn(&round.Deposit), nil
		}

		pr, err := getPullRequest(s, round.PullRequestID)
		if err != nil {
			return nil, err
		}
		slashed := pr.MergeDeposit
		pr.Status = state.Open
		pr.Maintainer = ids.ShortEmpty
		pr.MergeDeposit.Clear()
		pr.MergeInitiatedAt = 0
		if err := s.PutPullRequest(pr); err != nil {
			return nil, err
		}
		if err := s.DeletePendingMerge(round.Maintainer); err != nil {
			return nil, err
		}
		if err := s.RemoveMaintainer(round.Maintainer); err != nil {
			return nil, err
		}
		refund := &state.Entitlement{
			Account:       round.Challenger,
			PullRequestID: round.PullRequestID,
			Kind:          state.ChallengeRefund,
			Amount:        round.Deposit,
		}
		if err := s.AddEntitlement(refund); err != nil {
			return nil, err
		}

		l.log.Info("maintainer removed",
			log.Stringer("maintainer", round.Maintainer),
			log.Uint64("roundID", round.ID),
			log.String("burned", slashed.Dec()),
		)
		return l.burn(&slashed), nil
	})
	if err == nil {
		l.metrics.markResolved(outcome)
	}
	return outcome, err
}

// CurrentRound returns the active round or ErrNoActiveRound.
func (l *Ledger) CurrentRound() (*state.Round, error) {
	var round *state.Round
	err := l.view(func(s *state.State) error {
		var err error
		round, err = activeRound(s)
		return err
	})
	return round, err
}

// GetRound returns the round with the given id.
func (l *Ledger) GetRound(roundID uint64) (*state.Round, error) {
	var round *state.Round
	err := l.view(func(s *state.State) error {
		var err error
		round, err = getRound(s, roundID)
		return err
	})
	return round, err
}
