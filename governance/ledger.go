// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package governance implements the stake-governed repository ledger: issue
// curation, the pull request lifecycle, challenge votes with commit-reveal,
// voter reputation and pull-based reward distribution.
//
// Ledger is a single sequential state machine. Every operation runs to
// completion under one lock inside its own versioned database layer and
// performs at most one token movement, after all of its state writes. An
// operation rejected by its checks or by the token ledger leaves no trace. If
// the database itself fails to commit after the movement, the movement stands
// and is logged as an error for reconciliation.
package governance

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/collab/config"
	"github.com/luxfi/collab/state"
	"github.com/luxfi/collab/token"

	safemath "github.com/luxfi/collab/utils/math"
)

// Clock is the time source of the ledger, in unix seconds. It must never go
// backwards.
type Clock interface {
	Unix() uint64
}

// transfer is the token movement of an operation. It runs after the state
// writes of the operation and before they are committed.
type transfer func() error

type Ledger struct {
	mu sync.Mutex

	cfg     config.Config
	db      database.Database
	escrow  token.Capability
	clock   Clock
	log     log.Logger
	metrics *metrics

	reviewPeriod uint64
	commitPeriod uint64
	revealPeriod uint64

	contributionDeposit *uint256.Int
	mergeDeposit        *uint256.Int
	challengeDeposit    *uint256.Int
	voterDeposit        *uint256.Int
}

// New returns a ledger over db. On a fresh database the genesis maintainers
// are registered; on an initialized one they are ignored.
func New(
	cfg config.Config,
	db database.Database,
	escrow token.Capability,
	clock Clock,
	logger log.Logger,
	registerer prometheus.Registerer,
	genesisMaintainers ...ids.ShortID,
) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}

	l := &Ledger{
		cfg:     cfg,
		db:      db,
		escrow:  escrow,
		clock:   clock,
		log:     logger,
		metrics: m,

		reviewPeriod: uint64(cfg.ReviewPeriod / time.Second),
		commitPeriod: uint64(cfg.CommitPeriod / time.Second),
		revealPeriod: uint64(cfg.RevealPeriod / time.Second),

		contributionDeposit: uint256.NewInt(cfg.ContributionDeposit),
		mergeDeposit:        uint256.NewInt(cfg.MergeDeposit),
		challengeDeposit:    uint256.NewInt(cfg.ChallengeDeposit),
		voterDeposit:        uint256.NewInt(cfg.VoterDeposit),
	}

	err = l.execute("genesis", func(s *state.State) (transfer, error) {
		initialized, err := s.IsInitialized()
		if err != nil || initialized {
			return nil, err
		}
		for _, maintainer := range genesisMaintainers {
			if err := s.AddMaintainer(maintainer); err != nil {
				return nil, err
			}
			l.log.Info("registered genesis maintainer",
				log.Stringer("maintainer", maintainer),
			)
		}
		return nil, s.SetInitialized()
	})
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	roundID, ok, err := state.New(l.db).GetActiveRound()
	if err != nil {
		return nil, err
	}
	if ok {
		l.metrics.activeRound.Set(float64(roundID))
	}
	return l, nil
}

// Config returns the protocol parameters of the ledger.
func (l *Ledger) Config() config.Config {
	return l.cfg
}

// execute runs op atomically. f performs the state writes against a fresh
// versioned layer and returns the token movement, if any. The layer is
// committed only if both succeed. The movement cannot be undone, so a commit
// failure after it is reported as orphaned.
func (l *Ledger) execute(op string, f func(s *state.State) (transfer, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	vdb := versiondb.New(l.db)
	move, err := f(state.New(vdb))
	if err == nil && move != nil {
		err = move()
	}
	if err != nil {
		vdb.Abort()
		err = l.classify(op, err)
		l.metrics.observe(op, err)
		return err
	}

	if err := vdb.Commit(); err != nil {
		l.log.Error("failed to commit operation",
			log.String("op", op),
			log.Bool("orphanedTransfer", move != nil),
			log.Err(err),
		)
		l.metrics.observe(op, err)
		return err
	}
	l.metrics.observe(op, nil)
	return nil
}

// classify maps arithmetic failures onto ErrArithmeticOverflow. They are
// invariant breaches, never the result of valid input.
func (l *Ledger) classify(op string, err error) error {
	if !errors.Is(err, safemath.ErrOverflow) &&
		!errors.Is(err, safemath.ErrUnderflow) &&
		!errors.Is(err, safemath.ErrDivideByZero) &&
		!errors.Is(err, token.ErrSupplyOverflow) {
		return err
	}
	err = fmt.Errorf("%w: %w", ErrArithmeticOverflow, err)
	l.log.Error("arithmetic invariant violated",
		log.String("op", op),
		log.Err(err),
	)
	return err
}

// view runs a read-only query against the committed state.
func (l *Ledger) view(f func(s *state.State) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return f(state.New(l.db))
}

func (l *Ledger) pull(from ids.ShortID, amount *uint256.Int) transfer {
	return func() error {
		return l.escrow.Pull(from, amount)
	}
}

func (l *Ledger) push(to ids.ShortID, amount *uint256.Int) transfer {
	return func() error {
		if err := l.escrow.Push(to, amount); err != nil {
			l.log.Error("failed to pay out of custody",
				log.Stringer("to", to),
				log.String("amount", amount.Dec()),
				log.Err(err),
			)
			return err
		}
		return nil
	}
}

func (l *Ledger) mint(amount *uint256.Int) transfer {
	if amount.IsZero() {
		return nil
	}
	return func() error {
		if err := l.escrow.Mint(amount); err != nil {
			return err
		}
		l.metrics.minted.Inc()
		return nil
	}
}

func (l *Ledger) burn(amount *uint256.Int) transfer {
	if amount.IsZero() {
		return nil
	}
	return func() error {
		if err := l.escrow.Burn(amount); err != nil {
			return err
		}
		l.metrics.burned.Inc()
		return nil
	}
}

// IsMaintainer reports whether addr is a maintainer.
func (l *Ledger) IsMaintainer(addr ids.ShortID) (bool, error) {
	var isMaintainer bool
	err := l.view(func(s *state.State) error {
		var err error
		isMaintainer, err = s.IsMaintainer(addr)
		return err
	})
	return isMaintainer, err
}

// Maintainers returns the current maintainer set.
func (l *Ledger) Maintainers() (set.Set[ids.ShortID], error) {
	var maintainers set.Set[ids.ShortID]
	err := l.view(func(s *state.State) error {
		var err error
		maintainers, err = s.Maintainers()
		return err
	})
	return maintainers, err
}

func requireMaintainer(s *state.State, addr ids.ShortID) error {
	isMaintainer, err := s.IsMaintainer(addr)
	if err != nil {
		return err
	}
	if !isMaintainer {
		return ErrNotMaintainer
	}
	return nil
}

func getIssue(s *state.State, id uint64) (*state.Issue, error) {
	issue, err := s.GetIssue(id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUnknownIssue
	}
	return issue, err
}

func getPullRequest(s *state.State, id uint64) (*state.PullRequest, error) {
	pr, err := s.GetPullRequest(id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUnknownPullRequest
	}
	return pr, err
}

func getRound(s *state.State, id uint64) (*state.Round, error) {
	round, err := s.GetRound(id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUnknownRound
	}
	return round, err
}

// activeRound returns the unresolved round or ErrNoActiveRound.
func activeRound(s *state.State) (*state.Round, error) {
	id, ok, err := s.GetActiveRound()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveRound
	}
	return getRound(s, id)
}
