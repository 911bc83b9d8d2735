package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"mbook/state"
)

// Run serves until interrupted.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)

	addr := env.Cfg.Server.Listen
	if listen := cmd.String("listen"); len(listen) > 0 {
		addr = listen
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return New(env).ListenAndServe(ctx, addr)
}
