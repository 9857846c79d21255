package cmd

import (
	"errors"
	"fmt"

	"github.com/avelara/coachctl/internal/application"
	"github.com/avelara/coachctl/internal/domain"
	"github.com/spf13/cobra"
)

const defaultLanguage = "en"

func newLangCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lang",
		Short: "Show or change the interface language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lang, err := app.store.Get(cmd.Context(), application.StateKeyLanguage)
			if errors.Is(err, domain.ErrStateKeyMissing) {
				lang = defaultLanguage
			} else if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), lang)
			return nil
		},
	}

	cmd.AddCommand(newLangSetCmd(app))

	return cmd
}

func newLangSetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <code>",
		Short: "Set the interface language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]
			if !domain.IsSupportedLocale(code) {
				return fmt.Errorf("unsupported language %q; supported: %v", code, domain.SupportedLocales)
			}

			if err := app.store.Put(cmd.Context(), application.StateKeyLanguage, code); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Language set to %s\n", code)
			return nil
		},
	}
}
