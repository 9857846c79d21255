package cmd

import (
	"fmt"

	"github.com/avelara/coachctl/internal/application"
	"github.com/spf13/cobra"
)

func newWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.session.Initialize(cmd.Context()); err != nil {
				return err
			}

			status := app.session.Status()
			if status.State == application.SessionUnauthenticated {
				return fmt.Errorf("not signed in; run `coachctl login` first")
			}

			out := cmd.OutOrStdout()
			if status.User == nil {
				_, _ = fmt.Fprintln(out, "Signed in, but the profile could not be fetched yet.")
				return nil
			}

			_, _ = fmt.Fprintf(out, "%s <%s>\n", status.User.DisplayName, status.User.Email)
			_, _ = fmt.Fprintf(out, "plan: %s\n", status.User.Tier.Label())
			if status.User.Locale != "" {
				_, _ = fmt.Fprintf(out, "locale: %s\n", status.User.Locale)
			}
			if status.State == application.SessionDegraded {
				_, _ = fmt.Fprintf(out, "note: offline copy from %s\n", status.CachedAt.Format("15:04 on 02 Jan"))
			}

			return nil
		},
	}
}
