// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/luxfi/collab/cmd/collabd/run"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run.Command().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "collabd failed: %s\n", err)
		stop()
		os.Exit(1)
	}
}
