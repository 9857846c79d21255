package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/avelara/coachctl/internal/application"
	"github.com/avelara/coachctl/internal/ports"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var email string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and establish a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				read, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = read
			}

			err := app.session.Login(cmd.Context(), ports.Credentials{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}

			name := email
			if user := app.session.CachedUser(); user != nil && user.DisplayName != "" {
				name = user.DisplayName
			}

			switch app.session.State() {
			case application.SessionDegraded:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (profile fetch pending, will retry)\n", email)
			default:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", name)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.session.Logout(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func readPassword(cmd *cobra.Command) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}

	return password, nil
}
