// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api exposes the governance ledger over JSON-RPC.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/collab/governance"
	"github.com/luxfi/collab/state"
	"github.com/luxfi/collab/token"
	"github.com/luxfi/collab/utils/json"
)

// Name is the name the service is registered under.
const Name = "collab"

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrTokenUnavailable = errors.New("token ledger is not hosted by this node")
)

// EmptyReply is the reply of calls that return nothing.
type EmptyReply struct{}

// Service is the JSON-RPC service of the governance ledger. The From field of
// every call is trusted: callers are authenticated in front of the service.
type Service struct {
	log    log.Logger
	ledger *governance.Ledger

	// tokens is nil unless the token ledger runs in-process.
	tokens  *token.Ledger
	custody ids.ShortID
}

// NewHandler returns an http handler serving the service under [Name]. The
// token helpers are only available when tokens is non-nil.
func NewHandler(
	log log.Logger,
	ledger *governance.Ledger,
	tokens *token.Ledger,
	custody ids.ShortID,
) (http.Handler, error) {
	server := rpc.NewServer()
	codec := json2.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(
		&Service{
			log:     log,
			ledger:  ledger,
			tokens:  tokens,
			custody: custody,
		},
		Name,
	)
}

func (s *Service) called(method string) {
	s.log.Debug("API called",
		log.String("service", Name),
		log.String("method", method),
	)
}

func parseAddress(field, addr string) (ids.ShortID, error) {
	if addr == "" {
		return ids.ShortEmpty, fmt.Errorf("%w: %s required", ErrInvalidRequest, field)
	}
	id, err := ids.ShortFromString(addr)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("%w: invalid %s %q: %w", ErrInvalidRequest, field, addr, err)
	}
	return id, nil
}

// FromArgs identifies the caller of a state-changing call.
type FromArgs struct {
	From string `json:"from"`
}

func (a *FromArgs) caller() (ids.ShortID, error) {
	return parseAddress("from", a.From)
}

// AddressArgs identifies the subject of a query.
type AddressArgs struct {
	Address string `json:"address"`
}

// AmountReply carries an amount of tokens.
type AmountReply struct {
	Amount json.Amount `json:"amount"`
}

// Issues

type NewIssueArgs struct {
	FromArgs
	ContentHash string `json:"contentHash"`
}

type IDReply struct {
	ID json.Uint64 `json:"id"`
}

// NewIssue creates an issue.
func (s *Service) NewIssue(_ *http.Request, args *NewIssueArgs, reply *IDReply) error {
	s.called("newIssue")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	id, err := s.ledger.NewIssue(caller, args.ContentHash)
	reply.ID = json.Uint64(id)
	return err
}

type IssueArgs struct {
	FromArgs
	IssueID json.Uint64 `json:"issueID"`
}

type StakeIssueArgs struct {
	IssueArgs
	Amount json.Amount `json:"amount"`
}

// StakeIssue stakes tokens on an active issue.
func (s *Service) StakeIssue(_ *http.Request, args *StakeIssueArgs, _ *EmptyReply) error {
	s.called("stakeIssue")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	return s.ledger.StakeIssue(caller, uint64(args.IssueID), args.Amount.Value())
}

// WithdrawIssueStake returns the caller's stake on an inactive issue.
func (s *Service) WithdrawIssueStake(_ *http.Request, args *IssueArgs, reply *AmountReply) error {
	s.called("withdrawIssueStake")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	amount, err := s.ledger.WithdrawIssueStake(caller, uint64(args.IssueID))
	if err != nil {
		return err
	}
	reply.Amount = json.NewAmount(amount)
	return nil
}

// CloseIssue deactivates an issue.
func (s *Service) CloseIssue(_ *http.Request, args *IssueArgs, _ *EmptyReply) error {
	s.called("closeIssue")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	return s.ledger.CloseIssue(caller, uint64(args.IssueID))
}

// DeleteIssue removes an inactive issue without outstanding stake.
func (s *Service) DeleteIssue(_ *http.Request, args *IssueArgs, _ *EmptyReply) error {
	s.called("deleteIssue")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	return s.ledger.DeleteIssue(caller, uint64(args.IssueID))
}

type GetIssueArgs struct {
	IssueID json.Uint64 `json:"issueID"`
}

type GetIssueReply struct {
	ID          json.Uint64 `json:"id"`
	ContentHash string      `json:"contentHash"`
	Creator     string      `json:"creator"`
	Active      bool        `json:"active"`
	TotalStake  json.Amount `json:"totalStake"`
}

// GetIssue returns an issue.
func (s *Service) GetIssue(_ *http.Request, args *GetIssueArgs, reply *GetIssueReply) error {
	s.called("getIssue")

	issue, err := s.ledger.GetIssue(uint64(args.IssueID))
	if err != nil {
		return err
	}
	reply.ID = json.Uint64(issue.ID)
	reply.ContentHash = issue.ContentHash
	reply.Creator = issue.Creator.String()
	reply.Active = issue.Active
	reply.TotalStake = json.NewAmount(&issue.TotalStake)
	return nil
}

type GetIssueStakeArgs struct {
	IssueID json.Uint64 `json:"issueID"`
	Curator string      `json:"curator"`
}

// GetIssueStake returns a curator's stake on an issue.
func (s *Service) GetIssueStake(_ *http.Request, args *GetIssueStakeArgs, reply *AmountReply) error {
	s.called("getIssueStake")

	curator, err := parseAddress("curator", args.Curator)
	if err != nil {
		return err
	}
	amount, err := s.ledger.GetIssueStake(uint64(args.IssueID), curator)
	if err != nil {
		return err
	}
	reply.Amount = json.NewAmount(amount)
	return nil
}

// Pull requests

type OpenPullRequestArgs struct {
	IssueArgs
	Fork string `json:"fork"`
}

// OpenPullRequest opens a pull request against an issue.
func (s *Service) OpenPullRequest(_ *http.Request, args *OpenPullRequestArgs, reply *IDReply) error {
	s.called("openPullRequest")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	id, err := s.ledger.OpenPullRequest(caller, uint64(args.IssueID), args.Fork)
	reply.ID = json.Uint64(id)
	return err
}

type PullRequestArgs struct {
	FromArgs
	PullRequestID json.Uint64 `json:"pullRequestID"`
}

// ClosePullRequest rejects an open pull request.
func (s *Service) ClosePullRequest(_ *http.Request, args *PullRequestArgs, _ *EmptyReply) error {
	s.called("closePullRequest")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	return s.ledger.ClosePullRequest(caller, uint64(args.PullRequestID))
}

// InitMergePullRequest starts the review period of a pull request.
func (s *Service) InitMergePullRequest(_ *http.Request, args *PullRequestArgs, _ *EmptyReply) error {
	s.called("initMergePullRequest")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	return s.ledger.InitMergePullRequest(caller, uint64(args.PullRequestID))
}

// MergePullRequest completes a merge after its review period.
func (s *Service) MergePullRequest(_ *http.Request, args *PullRequestArgs, _ *EmptyReply) error {
	s.called("mergePullRequest")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	return s.ledger.MergePullRequest(caller, uint64(args.PullRequestID))
}

type GetPullRequestArgs struct {
	PullRequestID json.Uint64 `json:"pullRequestID"`
}

type GetPullRequestReply struct {
	ID               json.Uint64 `json:"id"`
	IssueID          json.Uint64 `json:"issueID"`
	Creator          string      `json:"creator"`
	Fork             string      `json:"fork"`
	Status           string      `json:"status"`
	Deposit          json.Amount `json:"deposit"`
	Maintainer       string      `json:"maintainer,omitempty"`
	MergeDeposit     json.Amount `json:"mergeDeposit"`
	MergeInitiatedAt json.Uint64 `json:"mergeInitiatedAt"`
	ChallengeRound   json.Uint64 `json:"challengeRound"`
	RewardClaimed    []string    `json:"rewardClaimed"`
}

// GetPullRequest returns a pull request.
func (s *Service) GetPullRequest(_ *http.Request, args *GetPullRequestArgs, reply *GetPullRequestReply) error {
	s.called("getPullRequest")

	pr, err := s.ledger.GetPullRequest(uint64(args.PullRequestID))
	if err != nil {
		return err
	}
	reply.ID = json.Uint64(pr.ID)
	reply.IssueID = json.Uint64(pr.IssueID)
	reply.Creator = pr.Creator.String()
	reply.Fork = pr.Fork
	reply.Status = pr.Status.String()
	reply.Deposit = json.NewAmount(&pr.Deposit)
	if pr.Maintainer != ids.ShortEmpty {
		reply.Maintainer = pr.Maintainer.String()
	}
	reply.MergeDeposit = json.NewAmount(&pr.MergeDeposit)
	reply.MergeInitiatedAt = json.Uint64(pr.MergeInitiatedAt)
	reply.ChallengeRound = json.Uint64(pr.ChallengeRound)
	reply.RewardClaimed = make([]string, len(pr.RewardClaimed))
	for i, addr := range pr.RewardClaimed {
		reply.RewardClaimed[i] = addr.String()
	}
	return nil
}

// Challenges and votes

type ChallengeArgs struct {
	FromArgs
	Maintainer string `json:"maintainer"`
}

// Challenge opens a voting round against a maintainer's pending merge.
func (s *Service) Challenge(_ *http.Request, args *ChallengeArgs, reply *IDReply) error {
	s.called("challenge")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	maintainer, err := parseAddress("maintainer", args.Maintainer)
	if err != nil {
		return err
	}
	id, err := s.ledger.Challenge(caller, maintainer)
	reply.ID = json.Uint64(id)
	return err
}

type CommitVoteArgs struct {
	FromArgs
	Commitment ids.ID `json:"commitment"`
}

// CommitVote records a hidden vote in the active round.
func (s *Service) CommitVote(_ *http.Request, args *CommitVoteArgs, _ *EmptyReply) error {
	s.called("commitVote")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	return s.ledger.CommitVote(caller, args.Commitment)
}

type RevealVoteArgs struct {
	FromArgs
	// Preimage is choiceTag || secret, base64 encoded.
	Preimage []byte `json:"preimage"`
}

// RevealVote opens a committed vote.
func (s *Service) RevealVote(_ *http.Request, args *RevealVoteArgs, _ *EmptyReply) error {
	s.called("revealVote")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	return s.ledger.RevealVote(caller, args.Preimage)
}

type VoteResultReply struct {
	Outcome string `json:"outcome"`
}

// VoteResult resolves the active round once its reveal phase is over.
func (s *Service) VoteResult(_ *http.Request, args *FromArgs, reply *VoteResultReply) error {
	s.called("voteResult")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	outcome, err := s.ledger.VoteResult(caller)
	if err != nil {
		return err
	}
	reply.Outcome = outcome.String()
	return nil
}

type GetRoundArgs struct {
	RoundID json.Uint64 `json:"roundID"`
}

type GetRoundReply struct {
	ID             json.Uint64 `json:"id"`
	PullRequestID  json.Uint64 `json:"pullRequestID"`
	Maintainer     string      `json:"maintainer"`
	Challenger     string      `json:"challenger"`
	Deposit        json.Amount `json:"deposit"`
	CommitDeadline json.Uint64 `json:"commitDeadline"`
	RevealDeadline json.Uint64 `json:"revealDeadline"`
	TallyUphold    json.Amount `json:"tallyUphold"`
	TallyVeto      json.Amount `json:"tallyVeto"`
	Resolved       bool        `json:"resolved"`
	Outcome        string      `json:"outcome"`
}

func (r *GetRoundReply) set(round *state.Round) {
	r.ID = json.Uint64(round.ID)
	r.PullRequestID = json.Uint64(round.PullRequestID)
	r.Maintainer = round.Maintainer.String()
	r.Challenger = round.Challenger.String()
	r.Deposit = json.NewAmount(&round.Deposit)
	r.CommitDeadline = json.Uint64(round.CommitDeadline)
	r.RevealDeadline = json.Uint64(round.RevealDeadline)
	r.TallyUphold = json.NewAmount(&round.TallyUphold)
	r.TallyVeto = json.NewAmount(&round.TallyVeto)
	r.Resolved = round.Resolved
	r.Outcome = round.Outcome.String()
}

// CurrentRound returns the active round.
func (s *Service) CurrentRound(_ *http.Request, _ *struct{}, reply *GetRoundReply) error {
	s.called("currentRound")

	round, err := s.ledger.CurrentRound()
	if err != nil {
		return err
	}
	reply.set(round)
	return nil
}

// GetRound returns a round.
func (s *Service) GetRound(_ *http.Request, args *GetRoundArgs, reply *GetRoundReply) error {
	s.called("getRound")

	round, err := s.ledger.GetRound(uint64(args.RoundID))
	if err != nil {
		return err
	}
	reply.set(round)
	return nil
}

// Voters

// Deposit adds the voter deposit to the caller's stake.
func (s *Service) Deposit(_ *http.Request, args *FromArgs, _ *EmptyReply) error {
	s.called("deposit")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	return s.ledger.Deposit(caller)
}

// VoterCheckIn settles the caller's participation in its last round.
func (s *Service) VoterCheckIn(_ *http.Request, args *FromArgs, reply *AmountReply) error {
	s.called("voterCheckIn")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	deposit, err := s.ledger.VoterCheckIn(caller)
	if err != nil {
		return err
	}
	reply.Amount = json.NewAmount(deposit)
	return nil
}

// VoterWithdraw returns the caller's whole voter deposit.
func (s *Service) VoterWithdraw(_ *http.Request, args *FromArgs, reply *AmountReply) error {
	s.called("voterWithdraw")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	amount, err := s.ledger.VoterWithdraw(caller)
	if err != nil {
		return err
	}
	reply.Amount = json.NewAmount(amount)
	return nil
}

type GetVoterReply struct {
	Address            string      `json:"address"`
	Deposit            json.Amount `json:"deposit"`
	Round              json.Uint64 `json:"round"`
	Commitment         ids.ID      `json:"commitment"`
	Revealed           bool        `json:"revealed"`
	Choice             string      `json:"choice"`
	CheckedIn          bool        `json:"checkedIn"`
	LastRoundCheckedIn json.Uint64 `json:"lastRoundCheckedIn"`
}

// GetVoter returns a voter record.
func (s *Service) GetVoter(_ *http.Request, args *AddressArgs, reply *GetVoterReply) error {
	s.called("getVoter")

	addr, err := parseAddress("address", args.Address)
	if err != nil {
		return err
	}
	voter, err := s.ledger.GetVoter(addr)
	if err != nil {
		return err
	}
	reply.Address = voter.Address.String()
	reply.Deposit = json.NewAmount(&voter.Deposit)
	reply.Round = json.Uint64(voter.Round)
	reply.Commitment = voter.Commitment
	reply.Revealed = voter.Revealed
	reply.Choice = voter.Choice.String()
	reply.CheckedIn = voter.CheckedIn
	reply.LastRoundCheckedIn = json.Uint64(voter.LastRoundCheckedIn)
	return nil
}

// Rewards

// Reward pays the caller's merge reward for a pull request.
func (s *Service) Reward(_ *http.Request, args *PullRequestArgs, reply *AmountReply) error {
	s.called("reward")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	amount, err := s.ledger.Reward(caller, uint64(args.PullRequestID))
	if err != nil {
		return err
	}
	reply.Amount = json.NewAmount(amount)
	return nil
}

// WithdrawStakes pays every outstanding entitlement of the caller.
func (s *Service) WithdrawStakes(_ *http.Request, args *FromArgs, reply *AmountReply) error {
	s.called("withdrawStakes")

	caller, err := args.caller()
	if err != nil {
		return err
	}
	amount, err := s.ledger.WithdrawStakes(caller)
	if err != nil {
		return err
	}
	reply.Amount = json.NewAmount(amount)
	return nil
}

type Entitlement struct {
	ID            json.Uint64 `json:"id"`
	PullRequestID json.Uint64 `json:"pullRequestID"`
	Kind          string      `json:"kind"`
	Amount        json.Amount `json:"amount"`
}

type ClaimableReply struct {
	Total        json.Amount   `json:"total"`
	Entitlements []Entitlement `json:"entitlements"`
}

// Claimable returns what an account can withdraw.
func (s *Service) Claimable(_ *http.Request, args *AddressArgs, reply *ClaimableReply) error {
	s.called("claimable")

	addr, err := parseAddress("address", args.Address)
	if err != nil {
		return err
	}
	total, err := s.ledger.Claimable(addr)
	if err != nil {
		return err
	}
	entitlements, err := s.ledger.Entitlements(addr)
	if err != nil {
		return err
	}

	reply.Total = json.NewAmount(total)
	reply.Entitlements = make([]Entitlement, len(entitlements))
	for i, e := range entitlements {
		reply.Entitlements[i] = Entitlement{
			ID:            json.Uint64(e.ID),
			PullRequestID: json.Uint64(e.PullRequestID),
			Kind:          e.Kind.String(),
			Amount:        json.NewAmount(&e.Amount),
		}
	}
	return nil
}

// Maintainers

type IsMaintainerReply struct {
	IsMaintainer bool `json:"isMaintainer"`
}

// IsMaintainer reports whether an address is a maintainer.
func (s *Service) IsMaintainer(_ *http.Request, args *AddressArgs, reply *IsMaintainerReply) error {
	s.called("isMaintainer")

	addr, err := parseAddress("address", args.Address)
	if err != nil {
		return err
	}
	reply.IsMaintainer, err = s.ledger.IsMaintainer(addr)
	return err
}

type MaintainersReply struct {
	Maintainers []string `json:"maintainers"`
}

// Maintainers lists the current maintainers.
func (s *Service) Maintainers(_ *http.Request, _ *struct{}, reply *MaintainersReply) error {
	s.called("maintainers")

	maintainers, err := s.ledger.Maintainers()
	if err != nil {
		return err
	}
	reply.Maintainers = make([]string, 0, maintainers.Len())
	for addr := range maintainers {
		reply.Maintainers = append(reply.Maintainers, addr.String())
	}
	return nil
}

type GetConfigReply struct {
	ReviewPeriod         json.Uint64 `json:"reviewPeriod"`
	CommitPeriod         json.Uint64 `json:"commitPeriod"`
	RevealPeriod         json.Uint64 `json:"revealPeriod"`
	ContributionDeposit  json.Uint64 `json:"contributionDeposit"`
	MergeDeposit         json.Uint64 `json:"mergeDeposit"`
	ChallengeDeposit     json.Uint64 `json:"challengeDeposit"`
	VoterDeposit         json.Uint64 `json:"voterDeposit"`
	MaintainerPercentage json.Uint64 `json:"maintainerPercentage"`
	RewardNumerator      json.Uint64 `json:"rewardNumerator"`
	PenaltyNumerator     json.Uint64 `json:"penaltyNumerator"`
	FactorDenominator    json.Uint64 `json:"factorDenominator"`
	Custody              string      `json:"custody"`
}

// GetConfig returns the protocol parameters. Periods are in seconds.
func (s *Service) GetConfig(_ *http.Request, _ *struct{}, reply *GetConfigReply) error {
	s.called("getConfig")

	cfg := s.ledger.Config()
	reply.ReviewPeriod = json.Uint64(cfg.ReviewPeriod / time.Second)
	reply.CommitPeriod = json.Uint64(cfg.CommitPeriod / time.Second)
	reply.RevealPeriod = json.Uint64(cfg.RevealPeriod / time.Second)
	reply.ContributionDeposit = json.Uint64(cfg.ContributionDeposit)
	reply.MergeDeposit = json.Uint64(cfg.MergeDeposit)
	reply.ChallengeDeposit = json.Uint64(cfg.ChallengeDeposit)
	reply.VoterDeposit = json.Uint64(cfg.VoterDeposit)
	reply.MaintainerPercentage = json.Uint64(cfg.MaintainerPercentage)
	reply.RewardNumerator = json.Uint64(cfg.RewardNumerator)
	reply.PenaltyNumerator = json.Uint64(cfg.PenaltyNumerator)
	reply.FactorDenominator = json.Uint64(cfg.FactorDenominator)
	reply.Custody = s.custody.String()
	return nil
}

// Token helpers, for networks that host the token ledger in-process.

// Balance returns the token balance of an address.
func (s *Service) Balance(_ *http.Request, args *AddressArgs, reply *AmountReply) error {
	s.called("balance")

	if s.tokens == nil {
		return ErrTokenUnavailable
	}
	addr, err := parseAddress("address", args.Address)
	if err != nil {
		return err
	}
	reply.Amount = json.NewAmount(s.tokens.BalanceOf(addr))
	return nil
}

type ApproveArgs struct {
	FromArgs
	Amount json.Amount `json:"amount"`
}

// Approve sets the allowance of the custody account over the caller's tokens.
func (s *Service) Approve(_ *http.Request, args *ApproveArgs, _ *EmptyReply) error {
	s.called("approve")

	if s.tokens == nil {
		return ErrTokenUnavailable
	}
	caller, err := args.caller()
	if err != nil {
		return err
	}
	s.tokens.Approve(caller, s.custody, args.Amount.Value())
	return nil
}

type TransferArgs struct {
	FromArgs
	To     string      `json:"to"`
	Amount json.Amount `json:"amount"`
}

// Transfer moves tokens from the caller to another address.
func (s *Service) Transfer(_ *http.Request, args *TransferArgs, _ *EmptyReply) error {
	s.called("transfer")

	if s.tokens == nil {
		return ErrTokenUnavailable
	}
	caller, err := args.caller()
	if err != nil {
		return err
	}
	to, err := parseAddress("to", args.To)
	if err != nil {
		return err
	}
	return s.tokens.Transfer(caller, to, args.Amount.Value())
}
