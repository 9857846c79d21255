package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "coachctl",
		Short:         "coachctl: financial coaching dashboard for the terminal",
		Long:          "coachctl keeps a signed-in session with the coaching backend and mirrors your transactions, savings goals and linked accounts locally, with an offline copy when the network is flaky.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newProfileCmd(app),
		newPullCmd(app),
		newWatchCmd(app),
		newTxCmd(app),
		newLinkCmd(app),
		newChatCmd(app),
		newLangCmd(app),
	)

	return rootCmd
}
