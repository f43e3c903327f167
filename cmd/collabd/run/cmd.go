// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"context"
	"net"
	"net/http"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/collab/api"
	"github.com/luxfi/collab/api/health"
	"github.com/luxfi/collab/api/server"
	"github.com/luxfi/collab/governance"
	"github.com/luxfi/collab/token"
	"github.com/luxfi/collab/utils/profiler"
	"github.com/luxfi/collab/utils/timer/mockable"
	"github.com/luxfi/collab/utils/units"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:          "collabd",
		Short:        "Runs the collab governance ledger",
		RunE:         runFunc,
		SilenceUsage: true,
	}
	flags := c.Flags()
	AddFlags(flags)
	return c
}

func runFunc(c *cobra.Command, args []string) error {
	config, err := ParseFlags(c.Flags(), args)
	if err != nil {
		return err
	}

	logger := log.NewLogger("collabd")
	listener, err := net.Listen("tcp", config.HTTPAddress)
	if err != nil {
		return err
	}
	return Serve(c.Context(), logger, config, listener)
}

// Serve hosts a fresh ledger on listener until ctx is done.
func Serve(ctx context.Context, logger log.Logger, config *Config, listener net.Listener) error {
	registry := prometheus.NewRegistry()
	err := registry.Register(collectors.NewGoCollector())
	if err != nil {
		return err
	}

	tokens := token.NewLedger()
	escrow := token.NewEscrow(tokens, config.Custody)
	if len(config.GenesisMaintainers) > 0 && config.GenesisSupply > 0 {
		if err := tokens.Mint(config.GenesisMaintainers[0], units.Tokens(config.GenesisSupply)); err != nil {
			return err
		}
		logger.Info("minted genesis supply",
			log.Stringer("to", config.GenesisMaintainers[0]),
			log.Uint64("tokens", config.GenesisSupply),
		)
	}

	ledger, err := governance.New(
		config.Protocol,
		memdb.New(),
		escrow,
		&mockable.Clock{},
		logger,
		registry,
		config.GenesisMaintainers...,
	)
	if err != nil {
		return err
	}

	checks, err := health.New(logger, registry)
	if err != nil {
		return err
	}
	if err := checks.Register("governance", ledger); err != nil {
		return err
	}

	service, err := api.NewHandler(logger, ledger, tokens, escrow.Address())
	if err != nil {
		return err
	}

	srv, err := server.New(
		logger,
		listener,
		config.AllowedOrigins,
		config.ShutdownTimeout,
		registry,
		server.HTTPConfig{
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
	)
	if err != nil {
		return err
	}
	routes := []struct {
		base    string
		handler http.Handler
	}{
		{base: api.Name, handler: service},
		{base: "metrics", handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})},
		{base: "health", handler: health.NewHandler(checks)},
	}
	for _, route := range routes {
		if err := srv.AddRoute(route.handler, route.base, ""); err != nil {
			return err
		}
	}

	logger.Info("serving",
		log.Stringer("address", listener.Addr()),
		log.Stringer("custody", escrow.Address()),
		log.Int("maintainers", len(config.GenesisMaintainers)),
	)

	var prof *profiler.Continuous
	if config.ProfileDir != "" {
		prof, err = profiler.NewContinuous(config.ProfileDir, config.ProfileFreq, config.ProfileMaxFiles)
		if err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Dispatch)
	if prof != nil {
		logger.Info("profiling", log.String("dir", config.ProfileDir))
		g.Go(func() error {
			return prof.Dispatch(ctx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return srv.Shutdown()
	})
	return g.Wait()
}
