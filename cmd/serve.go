package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotlink/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve exposes the resolver over HTTP until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	resolver, err := r.requireResolver()
	if err != nil {
		return err
	}

	policy, err := r.policyFor(cmd)
	if err != nil {
		return err
	}

	addr := r.config.Server.Addr()
	if cmd.IsSet("addr") {
		addr = cmd.String("addr")
	}

	if err := resolver.Start(ctx); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	defer resolver.Close()

	handler := server.NewResolveHandler(resolver, policy, r.logger)
	router := server.NewRouter(handler, r.metrics, r.logger)

	return server.New(addr, router, r.logger).Run(ctx)
}
