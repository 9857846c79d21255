package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avelara/coachctl/internal/adapters/render/dashboard"
	"github.com/avelara/coachctl/internal/application"
	"github.com/avelara/coachctl/internal/domain"
	"github.com/spf13/cobra"
)

func newPullCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Fetch the latest data and render the dashboard once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPull(cmd, app, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func runPull(cmd *cobra.Command, app *app, asJSON bool) error {
	if err := app.session.Initialize(cmd.Context()); err != nil {
		return err
	}
	if app.session.State() == application.SessionUnauthenticated {
		return fmt.Errorf("not signed in; run `coachctl login` first")
	}

	fetch := func(ctx context.Context) error {
		err := app.sync.RefreshAll(ctx)
		if err != nil {
			// Stale data still renders; only a total failure with nothing
			// to show aborts the command.
			snapshot := application.BuildDashboard(app.session, app.sync)
			if len(snapshot.Transactions.Items) == 0 &&
				len(snapshot.Goals.Items) == 0 &&
				len(snapshot.Connections.Items) == 0 {
				return err
			}
		}
		return nil
	}

	if asJSON {
		if err := fetch(cmd.Context()); err != nil {
			return err
		}
		return writeDashboardJSON(cmd, app)
	}

	if err := runFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching dashboard data...", fetch); err != nil {
		return err
	}

	output, err := app.renderDashboard(
		application.BuildDashboard(app.session, app.sync),
		dashboard.RenderOptions{Now: app.now()},
	)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

type dashboardJSON struct {
	User         *domain.UserSnapshot `json:"user,omitempty"`
	SessionState string               `json:"session_state"`
	Transactions []domain.Transaction `json:"transactions"`
	Goals        []domain.Goal        `json:"goals"`
	Connections  []domain.Connection  `json:"connections"`
	GeneratedAt  time.Time            `json:"generated_at"`
}

func writeDashboardJSON(cmd *cobra.Command, app *app) error {
	snapshot := application.BuildDashboard(app.session, app.sync)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(dashboardJSON{
		User:         snapshot.Session.User,
		SessionState: string(snapshot.Session.State),
		Transactions: snapshot.Transactions.Items,
		Goals:        snapshot.Goals.Items,
		Connections:  snapshot.Connections.Items,
		GeneratedAt:  snapshot.GeneratedAt,
	})
}
