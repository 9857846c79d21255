package cmd

import (
	"fmt"
	"time"

	"github.com/avelara/coachctl/internal/application"
	"github.com/avelara/coachctl/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTxCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Work with transactions",
	}

	cmd.AddCommand(newTxAddCmd(app), newTxListCmd(app))

	return cmd
}

func newTxAddCmd(app *app) *cobra.Command {
	var description string
	var amount string
	var category string
	var date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a manual transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedAmount, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("parse amount %q: %w", amount, err)
			}

			occurredOn := app.now()
			if date != "" {
				occurredOn, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("parse date %q (want YYYY-MM-DD): %w", date, err)
				}
			}

			token, err := requireSession(cmd, app)
			if err != nil {
				return err
			}

			created, err := app.api.CreateTransaction(cmd.Context(), token, domain.Transaction{
				Description: description,
				Category:    category,
				Amount:      parsedAmount,
				OccurredOn:  occurredOn,
			})
			if err != nil {
				return err
			}

			// Show the new row immediately; the refresh confirms it.
			app.sync.ApplyTransaction(created)
			if _, err := app.sync.RefreshTransactions(cmd.Context()); err != nil {
				app.logger.Warn("post-create refresh failed", zap.Error(err))
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s (%s) as %s\n",
				created.Description, created.Amount.StringFixed(2), created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "What the money was for")
	cmd.Flags().StringVar(&amount, "amount", "", "Signed amount, e.g. -12.50")
	cmd.Flags().StringVar(&category, "category", "", "Spending category")
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newTxListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd, app); err != nil {
				return err
			}

			items, err := app.sync.RefreshTransactions(cmd.Context())
			if err != nil && len(items) == 0 {
				return err
			}

			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No transactions.")
				return nil
			}

			for _, t := range items {
				date := ""
				if !t.OccurredOn.IsZero() {
					date = t.OccurredOn.Format("2006-01-02")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-32s %12s  %s\n",
					date, t.Description, t.Amount.StringFixed(2), t.Category)
			}

			return nil
		},
	}
}

func requireSession(cmd *cobra.Command, app *app) (string, error) {
	if err := app.session.Initialize(cmd.Context()); err != nil {
		return "", err
	}
	if app.session.State() == application.SessionUnauthenticated {
		return "", fmt.Errorf("not signed in; run `coachctl login` first")
	}

	return app.session.Token(), nil
}
