package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avelara/coachctl/internal/adapters/render/dashboard"
	"github.com/avelara/coachctl/internal/application"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *app) *cobra.Command {
	var interval time.Duration
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the dashboard updating until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, app, interval, duration)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Render interval")
	cmd.Flags().DurationVar(&duration, "for", 0, "Stop after this duration (0 runs until interrupted)")

	return cmd
}

func runWatch(cmd *cobra.Command, app *app, interval, duration time.Duration) error {
	ctx := cmd.Context()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	changes, unsubscribe := app.session.Subscribe()
	defer unsubscribe()

	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		app.sync.Run(ctx, changes)
	}()

	if err := app.session.Initialize(ctx); err != nil {
		return err
	}
	if app.session.State() == application.SessionUnauthenticated {
		return fmt.Errorf("not signed in; run `coachctl login` first")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := renderOnce(cmd, app); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			<-syncDone
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil
			}
			return nil
		case <-ticker.C:
			// A degraded session keeps trying to confirm the user in the
			// background; success flips the state without user action.
			if app.session.State() == application.SessionDegraded {
				if err := app.session.RefreshUser(ctx); err != nil && !errors.Is(err, context.Canceled) {
					app.logger.Debug("background user refresh still failing")
				}
			}

			if err := renderOnce(cmd, app); err != nil {
				return err
			}
		}
	}
}

func renderOnce(cmd *cobra.Command, app *app) error {
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
