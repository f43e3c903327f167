// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/collab/state"
)

const (
	namespace    = "collab"
	opLabel      = "op"
	resultLabel  = "result"
	outcomeLabel = "outcome"

	resultSuccess = "success"
	resultFailure = "failure"
)

var (
	opLabels      = []string{opLabel, resultLabel}
	outcomeLabels = []string{outcomeLabel}
)

type metrics struct {
	operations         *prometheus.CounterVec
	minted             prometheus.Counter
	burned             prometheus.Counter
	roundsResolved     *prometheus.CounterVec
	maintainersRemoved prometheus.Counter
	activeRound        prometheus.Gauge
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "number of ledger operations by operation and result",
			},
			opLabels,
		),
		minted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minted_events_total",
			Help:      "number of mints into custody",
		}),
		burned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "burned_events_total",
			Help:      "number of burns from custody",
		}),
		roundsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rounds_resolved_total",
				Help:      "number of voting rounds resolved by outcome",
			},
			outcomeLabels,
		),
		maintainersRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintainers_removed_total",
			Help:      "number of maintainers removed by a vetoed vote",
		}),
		activeRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_round",
			Help:      "id of the unresolved voting round, 0 if none",
		}),
	}

	err := errors.Join(
		registerer.Register(m.operations),
		registerer.Register(m.minted),
		registerer.Register(m.burned),
		registerer.Register(m.roundsResolved),
		registerer.Register(m.maintainersRemoved),
		registerer.Register(m.activeRound),
	)
	return m, err
}

func (m *metrics) observe(op string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	m.operations.With(prometheus.Labels{
		opLabel:     op,
		resultLabel: result,
	}).Inc()
}

func (m *metrics) markResolved(outcome state.Choice) {
	m.roundsResolved.With(prometheus.Labels{
		outcomeLabel: outcome.String(),
	}).Inc()
	m.activeRound.Set(0)
	if outcome == state.Veto {
		m.maintainersRemoved.Inc()
	}
}
