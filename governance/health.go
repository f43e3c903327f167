// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"context"

	"github.com/luxfi/collab/state"
)

// HealthCheck reports the size of the governance state. The ledger is
// unhealthy once no maintainer is left to merge pull requests.
func (l *Ledger) HealthCheck(context.Context) (interface{}, error) {
	details := make(map[string]interface{})
	var maintainers int
	err := l.view(func(s *state.State) error {
		registered, err := s.Maintainers()
		if err != nil {
			return err
		}
		maintainers = registered.Len()

		pending, err := s.PendingMerges()
		if err != nil {
			return err
		}
		roundID, ok, err := s.GetActiveRound()
		if err != nil {
			return err
		}

		details["maintainers"] = maintainers
		details["pendingMerges"] = len(pending)
		if ok {
			details["activeRound"] = roundID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if maintainers == 0 {
		return details, ErrNoMaintainers
	}
	return details, nil
}
