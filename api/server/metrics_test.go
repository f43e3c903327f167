// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistrationFailure(t *testing.T) {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	_, err := newMetrics(reg)
	require.NoError(err)

	// Second registration fails on the duplicate collectors.
	m, err := newMetrics(reg)
	require.Error(err)
	require.Nil(m)
}

func TestWrapHandler(t *testing.T) {
	require := require.New(t)

	m, err := newMetrics(prometheus.NewRegistry())
	require.NoError(err)

	handler := m.wrapHandler("/ext/collab", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.InDelta(1, testutil.ToFloat64(m.inflight), 0)
		w.WriteHeader(http.StatusTeapot)
	}))

	for range 3 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ext/collab", nil))
		require.Equal(http.StatusTeapot, w.Code)
	}

	require.InDelta(3, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodPost, "/ext/collab")), 0)
	require.InDelta(0, testutil.ToFloat64(m.inflight), 0)
	require.Equal(1, testutil.CollectAndCount(m.duration))
}
