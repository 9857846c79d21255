package cmd

import (
	"fmt"

	"github.com/avelara/coachctl/internal/application"
	"github.com/avelara/coachctl/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLinkCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage linked bank accounts",
	}

	cmd.AddCommand(
		newLinkAddCmd(app),
		newLinkRemoveCmd(app),
		newLinkSyncCmd(app),
		newLinkListCmd(app),
	)

	return cmd
}

func newLinkAddCmd(app *app) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "add <institution>",
		Short: "Link a new bank account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireSession(cmd, app)
			if err != nil {
				return err
			}

			conn, err := app.api.ConnectAccount(cmd.Context(), token, args[0])
			if err != nil {
				return err
			}
			app.sync.ApplyConnection(conn)

			// Linking kicks off a server-side import; goals and
			// transactions change shortly after the connection appears.
			done, err := app.sync.RefreshWithFollowUp(cmd.Context(),
				application.SourceConnections,
				application.SourceTransactions, application.SourceGoals)
			if err != nil {
				app.logger.Warn("connection refresh failed", zap.Error(err))
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Linked %s (%s), import in progress\n", conn.Institution, conn.ID)

			if wait {
				select {
				case <-done:
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Import data refreshed")
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the delayed import refresh before exiting")

	return cmd
}

func newLinkRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <connection-id>",
		Short: "Unlink a bank account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireSession(cmd, app)
			if err != nil {
				return err
			}

			conn, err := app.api.DisconnectAccount(cmd.Context(), token, domain.ConnectionID(args[0]))
			if err != nil {
				return err
			}
			app.sync.ApplyConnection(conn)

			if _, err := app.sync.RefreshConnections(cmd.Context()); err != nil {
				app.logger.Warn("post-disconnect refresh failed", zap.Error(err))
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unlinked %s\n", conn.Institution)
			return nil
		},
	}
}

func newLinkSyncCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <connection-id>",
		Short: "Trigger a fresh import for a linked account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireSession(cmd, app)
			if err != nil {
				return err
			}

			conn, err := app.api.SyncConnection(cmd.Context(), token, domain.ConnectionID(args[0]))
			if err != nil {
				return err
			}
			app.sync.ApplyConnection(conn)

			if _, err := app.sync.RefreshTransactions(cmd.Context()); err != nil {
				app.logger.Warn("post-sync refresh failed", zap.Error(err))
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sync started for %s\n", conn.Institution)
			return nil
		},
	}
}

func newLinkListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List linked bank accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			items, err := app.sync.RefreshConnections(cmd.Context())
			if err != nil && len(items) == 0 {
				return err
			}

			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No linked accounts.")
				return nil
			}

			for _, conn := range items {
				synced := "never"
				if !conn.LastSyncedAt.IsZero() {
					synced = conn.LastSyncedAt.Format("2006-01-02 15:04")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-24s %-14s last sync: %s\n",
					conn.ID, conn.Institution, conn.Status, synced)
			}

			return nil
		},
	}
}
