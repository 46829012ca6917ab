package main

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/carrental-web/internal/devapi"
	"github.com/ukydev/carrental-web/internal/models"
)

func newDevAPICmd(a *app) *cobra.Command {
	var (
		addr      string
		fleetSize int
		seed      int64
	)

	cmd := &cobra.Command{
		Use:    "devapi",
		Short:  "Run an in-memory car API for local development",
		Hidden: true,
		Long: `Run an in-memory car API with a generated fleet. Deletes require an admin
token signed with JWT_SECRET; one is printed on startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			backend := devapi.NewBackend(devapi.GenerateFleet(fleetSize, rand.New(rand.NewSource(seed))), a.auth)

			token, err := a.auth.GenerateToken(&models.User{ID: "dev-admin", Username: "admin", Role: models.RoleAdmin})
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"addr":       addr,
				"fleet_size": fleetSize,
				"token":      token,
			}).Info("Starting development car API")

			return runHTTP(ctx, addr, backend.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5000", "Listen address")
	cmd.Flags().IntVar(&fleetSize, "fleet-size", 10, "Number of generated cars")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for the fleet (time based when 0)")
	return cmd
}

func runHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
