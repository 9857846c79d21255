package cmd

import (
	"fmt"

	"github.com/avelara/coachctl/internal/domain"
	"github.com/spf13/cobra"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the signed-in user's profile",
	}

	cmd.AddCommand(newProfileSetCmd(app))

	return cmd
}

func newProfileSetCmd(app *app) *cobra.Command {
	var displayName string
	var locale string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update display name or locale on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if displayName == "" && locale == "" {
				return fmt.Errorf("nothing to update; pass --name or --locale")
			}
			if locale != "" && !domain.IsSupportedLocale(locale) {
				return fmt.Errorf("unsupported locale %q; supported: %v", locale, domain.SupportedLocales)
			}

			if err := app.session.Initialize(cmd.Context()); err != nil {
				return err
			}

			var patch domain.UserPatch
			if displayName != "" {
				patch.DisplayName = &displayName
			}
			if locale != "" {
				patch.Locale = &locale
			}

			user, err := app.session.UpdateProfile(cmd.Context(), patch)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s (locale %s)\n", user.DisplayName, user.Locale)
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "New display name")
	cmd.Flags().StringVar(&locale, "locale", "", "New locale code")

	return cmd
}
