// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package health runs named health checks and serves their results.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
)

var errDuplicateCheck = errors.New("duplicated check")

// Checker can have its health checked.
type Checker interface {
	// HealthCheck returns details about the health of the checker and an
	// error if it is unhealthy.
	HealthCheck(context.Context) (interface{}, error)
}

type CheckerFunc func(context.Context) (interface{}, error)

func (f CheckerFunc) HealthCheck(ctx context.Context) (interface{}, error) {
	return f(ctx)
}

// Result is the outcome of one check.
type Result struct {
	Details   interface{}   `json:"message,omitempty"`
	Error     *string       `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// APIReply is the body served by the handler.
type APIReply struct {
	Checks  map[string]Result `json:"checks"`
	Healthy bool              `json:"healthy"`
}

type Health struct {
	log log.Logger

	lock   sync.RWMutex
	checks map[string]Checker

	// failingChecks is 1 for every failing check, 0 otherwise.
	failingChecks *prometheus.GaugeVec
}

func New(log log.Logger, registerer prometheus.Registerer) (*Health, error) {
	failingChecks := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "collab",
			Name:      "health_checks_failing",
			Help:      "number of currently failing health checks",
		},
		[]string{"check"},
	)
	if err := registerer.Register(failingChecks); err != nil {
		return nil, err
	}
	return &Health{
		log:           log,
		checks:        make(map[string]Checker),
		failingChecks: failingChecks,
	}, nil
}

// Register adds a named check.
func (h *Health) Register(name string, checker Checker) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if _, ok := h.checks[name]; ok {
		return fmt.Errorf("%w: %q", errDuplicateCheck, name)
	}
	h.checks[name] = checker
	h.failingChecks.WithLabelValues(name).Set(0)
	return nil
}

// Health runs every check and reports whether all of them passed.
func (h *Health) Health(ctx context.Context) (map[string]Result, bool) {
	h.lock.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.lock.RUnlock()
	sort.Strings(names)

	results := make(map[string]Result, len(names))
	healthy := true
	for _, name := range names {
		h.lock.RLock()
		checker := h.checks[name]
		h.lock.RUnlock()

		start := time.Now()
		details, err := checker.HealthCheck(ctx)
		result := Result{
			Details:   details,
			Timestamp: start,
			Duration:  time.Since(start),
		}
		if err != nil {
			msg := err.Error()
			result.Error = &msg
			healthy = false
			h.failingChecks.WithLabelValues(name).Set(1)
			h.log.Warn("health check failed",
				log.String("check", name),
				log.Err(err),
			)
		} else {
			h.failingChecks.WithLabelValues(name).Set(0)
		}
		results[name] = result
	}
	return results, healthy
}

// NewHandler serves the results of h. Unhealthy results are served with
// status 503.
func NewHandler(h *Health) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks, healthy := h.Health(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(APIReply{
			Checks:  checks,
			Healthy: healthy,
		})
	})
}
