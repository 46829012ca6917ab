package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ukydev/carrental-web/internal/handlers"
	"github.com/ukydev/carrental-web/internal/middleware"
	"github.com/ukydev/carrental-web/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the car list as a web page",
		Long: `Serve the car list over HTTP on PORT.

Browsers identify with the "token" cookie, set through POST /session, or
with an Authorization bearer header. The server stops on Ctrl+C or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.enableMQTT()
			defer a.close()
			return a.serve(ctx, net.JoinHostPort(host, a.cfg.Port))
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Interface to listen on (all by default)")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	cars, err := handlers.NewCarListHandler(a.cars, a.cars, a.dispatcher, a.flash, a.cfg.FrontendURL)
	if err != nil {
		return err
	}
	sessions := handlers.NewSessionHandler(a.auth, a.cfg.JWTExpiry)

	srv := web.New(addr, cars, sessions, middleware.NewAuthMiddleware(a.auth))
	return srv.Start(ctx)
}
