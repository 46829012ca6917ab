package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/carrental-web/internal/session"
	"github.com/ukydev/carrental-web/internal/tui"
)

func newBrowseCmd(a *app) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the car list in the terminal",
		Long: `Browse the car list in the terminal as the saved session.

Keys: / search, esc clear search, up/down move, enter or b book, e edit,
d delete, r reload, q quit. The route picked with book or edit is printed
on exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// log lines would tear the alternate screen
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				log.SetOutput(f)
			} else {
				log.SetOutput(io.Discard)
			}
			defer log.SetOutput(os.Stderr)

			store, err := session.OpenStore(ctx, a.cfg)
			if err != nil {
				return fmt.Errorf("failed to open session store: %w", err)
			}
			defer store.Close()

			sc, err := session.NewContext(ctx, store, a.auth)
			if err != nil {
				return err
			}

			a.enableMQTT()
			defer a.close()

			m := tui.NewModel(ctx, a.cars, sc.Current(), a.dispatcher, a.flash)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

			final, err := p.Run()
			if err != nil {
				return err
			}

			if model, ok := final.(tui.Model); ok && model.Route() != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), a.cfg.FrontendURL+model.Route().Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the browser runs")
	return cmd
}
