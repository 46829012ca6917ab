package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ukydev/carrental-web/internal/session"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the saved session used by browse",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <token|->",
			Short: "Save a session token issued by the authentication service",
			Long: `Save a session token issued by the authentication service. Pass - to read
the token from standard input.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				token := args[0]
				if token == "-" {
					var err error
					if token, err = readLine(cmd.InOrStdin()); err != nil {
						return err
					}
				}

				return a.withSession(cmd.Context(), func(sc *session.Context) error {
					s, err := sc.Set(cmd.Context(), token)
					if err != nil {
						return fmt.Errorf("failed to save session: %w", err)
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", s.User.Username, s.Role())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the saved session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withSession(cmd.Context(), func(sc *session.Context) error {
					out := cmd.OutOrStdout()
					s := sc.Current()
					if !s.IsAuthenticated() {
						stale, err := sc.StoredUser(cmd.Context())
						if err == nil && stale != nil {
							_, _ = fmt.Fprintf(out, "Not signed in (guest): the saved token of %s is no longer valid\n", stale.Username)
							return nil
						}
						_, _ = fmt.Fprintln(out, "Not signed in (guest)")
						return nil
					}
					_, _ = fmt.Fprintf(out, "User: %s\nRole: %s\nID:   %s\n", s.User.Username, s.Role(), s.User.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the saved session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withSession(cmd.Context(), func(sc *session.Context) error {
					if err := sc.Clear(cmd.Context()); err != nil {
						return err
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
					return nil
				})
			},
		},
	)
	return cmd
}

// withSession runs fn with the session restored from the configured store
func (a *app) withSession(ctx context.Context, fn func(*session.Context) error) error {
	store, err := session.OpenStore(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	sc, err := session.NewContext(ctx, store, a.auth)
	if err != nil {
		return err
	}
	return fn(sc)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no token on standard input")
	}
	return line, nil
}
