package main

import (
	"github.com/gin-gonic/gin"
	"github.com/japaniel/duckparse/pkg/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the parse API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gin.SetMode(gin.ReleaseMode)

			p, err := a.newParser()
			if err != nil {
				return err
			}
			srv := server.New(p, a.logger)

			// The server answers /health with 503 until the engine is loaded.
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return p.Load(ctx)
			})
			g.Go(func() error {
				return srv.Serve(ctx, a.cfg.Server.Addr)
			})
			return g.Wait()
		},
	}
}
