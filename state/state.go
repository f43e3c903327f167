// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state stores the governance tables: issues and their curator
// stakes, pull requests, voting rounds, voters, entitlements and the
// maintainer registry. Records reference each other by identifier only.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"

	safemath "github.com/luxfi/collab/utils/math"
)

var (
	ErrStateCorrupted = errors.New("state corrupted")

	issuePrefix         = []byte("issue")
	stakePrefix         = []byte("stake")
	pullRequestPrefix   = []byte("pullRequest")
	pendingMergePrefix  = []byte("pendingMerge")
	roundPrefix         = []byte("round")
	voterPrefix         = []byte("voter")
	entitlementPrefix   = []byte("entitlement")
	maintainerPrefix    = []byte("maintainer")
	metadataPrefix      = []byte("metadata")
	initializedKey      = []byte("initialized")
	nextIssueKey        = []byte("nextIssue")
	nextPullRequestKey  = []byte("nextPullRequest")
	nextRoundKey        = []byte("nextRound")
	nextEntitlementKey  = []byte("nextEntitlement")
	activeRoundKey      = []byte("activeRound")
	maintainerFlagValue = []byte{1}
)

// State is a view of the governance tables over a database. Callers own
// atomicity: run a State over a versiondb and commit or abort it as a whole.
type State struct {
	issues        database.Database
	stakes        database.Database
	pullRequests  database.Database
	pendingMerges database.Database
	rounds        database.Database
	voters        database.Database
	entitlements  database.Database
	maintainers   database.Database
	metadata      database.Database
}

// New returns a State over db.
func New(db database.Database) *State {
	return &State{
		issues:        prefixdb.New(issuePrefix, db),
		stakes:        prefixdb.New(stakePrefix, db),
		pullRequests:  prefixdb.New(pullRequestPrefix, db),
		pendingMerges: prefixdb.New(pendingMergePrefix, db),
		rounds:        prefixdb.New(roundPrefix, db),
		voters:        prefixdb.New(voterPrefix, db),
		entitlements:  prefixdb.New(entitlementPrefix, db),
		maintainers:   prefixdb.New(maintainerPrefix, db),
		metadata:      prefixdb.New(metadataPrefix, db),
	}
}

// IsInitialized reports whether genesis has been written.
func (s *State) IsInitialized() (bool, error) {
	return s.metadata.Has(initializedKey)
}

// SetInitialized records that genesis has been written.
func (s *State) SetInitialized() error {
	return s.metadata.Put(initializedKey, maintainerFlagValue)
}

// NextIssueID allocates the next sequential issue id, starting at 0.
func (s *State) NextIssueID() (uint64, error) {
	return s.nextID(nextIssueKey)
}

// NextPullRequestID allocates the next sequential pull request id, starting
// at 0.
func (s *State) NextPullRequestID() (uint64, error) {
	return s.nextID(nextPullRequestKey)
}

// NextRoundID allocates the next round id. Round ids start at 1 so that zero
// means "no round".
func (s *State) NextRoundID() (uint64, error) {
	id, err := s.nextID(nextRoundKey)
	if err != nil {
		return 0, err
	}
	return safemath.Add(id, 1)
}

func (s *State) nextID(key []byte) (uint64, error) {
	next, err := s.getUint64(s.metadata, key)
	if errors.Is(err, database.ErrNotFound) {
		next = 0
	} else if err != nil {
		return 0, err
	}
	following, err := safemath.Add(next, 1)
	if err != nil {
		return 0, err
	}
	if err := s.metadata.Put(key, uint64Key(following)); err != nil {
		return 0, err
	}
	return next, nil
}

// Issues

func (s *State) GetIssue(id uint64) (*Issue, error) {
	issue := &Issue{}
	if err := s.get(s.issues, uint64Key(id), issue); err != nil {
		return nil, err
	}
	return issue, nil
}

func (s *State) PutIssue(issue *Issue) error {
	return s.put(s.issues, uint64Key(issue.ID), issue)
}

func (s *State) DeleteIssue(id uint64) error {
	return s.issues.Delete(uint64Key(id))
}

// GetStake returns curator's stake on an issue, zero if none.
func (s *State) GetStake(issueID uint64, curator ids.ShortID) (*uint256.Int, error) {
	b, err := s.stakes.Get(stakeKey(issueID, curator))
	if errors.Is(err, database.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b), nil
}

// PutStake sets curator's stake on an issue. A zero amount removes the record.
func (s *State) PutStake(issueID uint64, curator ids.ShortID, amount *uint256.Int) error {
	key := stakeKey(issueID, curator)
	if amount.IsZero() {
		return s.stakes.Delete(key)
	}
	return s.stakes.Put(key, amount.Bytes())
}

// Stakes returns every non-zero curator stake on an issue.
func (s *State) Stakes(issueID uint64) (map[ids.ShortID]*uint256.Int, error) {
	it := s.stakes.NewIteratorWithPrefix(uint64Key(issueID))
	defer it.Release()

	stakes := make(map[ids.ShortID]*uint256.Int)
	for it.Next() {
		key := it.Key()
		if len(key) != 8+len(ids.ShortEmpty) {
			return nil, fmt.Errorf("%w: stake key length %d", ErrStateCorrupted, len(key))
		}
		var curator ids.ShortID
		copy(curator[:], key[8:])
		stakes[curator] = new(uint256.Int).SetBytes(it.Value())
	}
	return stakes, it.Error()
}

// Pull requests

func (s *State) GetPullRequest(id uint64) (*PullRequest, error) {
	pr := &PullRequest{}
	if err := s.get(s.pullRequests, uint64Key(id), pr); err != nil {
		return nil, err
	}
	return pr, nil
}

func (s *State) PutPullRequest(pr *PullRequest) error {
	return s.put(s.pullRequests, uint64Key(pr.ID), pr)
}

// GetPendingMerge returns the pull request maintainer has merge-initiated.
func (s *State) GetPendingMerge(maintainer ids.ShortID) (uint64, bool, error) {
	id, err := s.getUint64(s.pendingMerges, maintainer[:])
	if errors.Is(err, database.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *State) PutPendingMerge(maintainer ids.ShortID, prID uint64) error {
	return s.pendingMerges.Put(maintainer[:], uint64Key(prID))
}

func (s *State) DeletePendingMerge(maintainer ids.ShortID) error {
	return s.pendingMerges.Delete(maintainer[:])
}

// PendingMerges returns the ids of every merge-initiated pull request.
func (s *State) PendingMerges() ([]uint64, error) {
	it := s.pendingMerges.NewIterator()
	defer it.Release()

	var prIDs []uint64
	for it.Next() {
		value := it.Value()
		if len(value) != 8 {
			return nil, fmt.Errorf("%w: uint64 value length %d", ErrStateCorrupted, len(value))
		}
		prIDs = append(prIDs, binary.BigEndian.Uint64(value))
	}
	return prIDs, it.Error()
}

// Rounds

func (s *State) GetRound(id uint64) (*Round, error) {
	round := &Round{}
	if err := s.get(s.rounds, uint64Key(id), round); err != nil {
		return nil, err
	}
	return round, nil
}

func (s *State) PutRound(round *Round) error {
	return s.put(s.rounds, uint64Key(round.ID), round)
}

// GetActiveRound returns the id of the unresolved round, if any.
func (s *State) GetActiveRound() (uint64, bool, error) {
	id, err := s.getUint64(s.metadata, activeRoundKey)
	if errors.Is(err, database.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *State) SetActiveRound(id uint64) error {
	return s.metadata.Put(activeRoundKey, uint64Key(id))
}

func (s *State) ClearActiveRound() error {
	return s.metadata.Delete(activeRoundKey)
}

// Voters

// GetVoter returns the voter record of addr. An account that never deposited
// gets an empty record.
func (s *State) GetVoter(addr ids.ShortID) (*Voter, error) {
	voter := &Voter{}
	err := s.get(s.voters, addr[:], voter)
	if errors.Is(err, database.ErrNotFound) {
		return &Voter{Address: addr}, nil
	}
	if err != nil {
		return nil, err
	}
	return voter, nil
}

func (s *State) PutVoter(voter *Voter) error {
	return s.put(s.voters, voter.Address[:], voter)
}

// Entitlements

// AddEntitlement assigns e an id and stores it.
func (s *State) AddEntitlement(e *Entitlement) error {
	id, err := s.nextID(nextEntitlementKey)
	if err != nil {
		return err
	}
	e.ID = id
	return s.put(s.entitlements, entitlementKey(e.Account, id), e)
}

// Entitlements returns every outstanding entitlement of addr in creation
// order.
func (s *State) Entitlements(addr ids.ShortID) ([]*Entitlement, error) {
	it := s.entitlements.NewIteratorWithPrefix(addr[:])
	defer it.Release()

	var entitlements []*Entitlement
	for it.Next() {
		e := &Entitlement{}
		if _, err := Codec.Unmarshal(it.Value(), e); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStateCorrupted, err)
		}
		entitlements = append(entitlements, e)
	}
	return entitlements, it.Error()
}

func (s *State) DeleteEntitlement(e *Entitlement) error {
	return s.entitlements.Delete(entitlementKey(e.Account, e.ID))
}

// Maintainers

func (s *State) IsMaintainer(addr ids.ShortID) (bool, error) {
	return s.maintainers.Has(addr[:])
}

func (s *State) AddMaintainer(addr ids.ShortID) error {
	return s.maintainers.Put(addr[:], maintainerFlagValue)
}

func (s *State) RemoveMaintainer(addr ids.ShortID) error {
	return s.maintainers.Delete(addr[:])
}

// Maintainers returns the current maintainer set.
func (s *State) Maintainers() (set.Set[ids.ShortID], error) {
	it := s.maintainers.NewIterator()
	defer it.Release()

	maintainers := set.NewSet[ids.ShortID](0)
	for it.Next() {
		addr, err := ids.ToShortID(it.Key())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStateCorrupted, err)
		}
		maintainers.Add(addr)
	}
	return maintainers, it.Error()
}

// Helpers

func (*State) get(db database.Database, key []byte, dst interface{}) error {
	b, err := db.Get(key)
	if err != nil {
		return err
	}
	if _, err := Codec.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrStateCorrupted, err)
	}
	return nil
}

func (*State) put(db database.Database, key []byte, src interface{}) error {
	b, err := Codec.Marshal(CodecVersion, src)
	if err != nil {
		return err
	}
	return db.Put(key, b)
}

func (*State) getUint64(db database.Database, key []byte) (uint64, error) {
	b, err := db.Get(key)
	if err != nil {
		return 0, err
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: uint64 value length %d", ErrStateCorrupted, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func uint64Key(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func stakeKey(issueID uint64, curator ids.ShortID) []byte {
	return append(uint64Key(issueID), curator[:]...)
}

func entitlementKey(addr ids.ShortID, id uint64) []byte {
	return append(addr[:], uint64Key(id)...)
}
