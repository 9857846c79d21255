package cmd

import (
	"fmt"
	"strings"

	"github.com/avelara/coachctl/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newChatCmd(app *app) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the coaching agent",
		Long:  "chat sends a message to the coaching agent and records the exchange in a durable conversation journal. Without a message it prints the saved conversation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset {
				if err := app.journal.Clear(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Conversation cleared")
				return nil
			}

			if len(args) == 0 {
				return runChatHistory(cmd, app)
			}

			return runChatSend(cmd, app, strings.Join(args, " "))
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Discard the saved conversation")

	return cmd
}

func runChatHistory(cmd *cobra.Command, app *app) error {
	state, err := app.journal.Load(cmd.Context())
	if err != nil {
		return err
	}

	if len(state.Entries) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No conversation yet. Send a message with `coachctl chat <message>`.")
		return nil
	}

	for _, entry := range state.Entries {
		printEntry(cmd, entry)
	}

	return nil
}

func runChatSend(cmd *cobra.Command, app *app, text string) error {
	token, err := requireSession(cmd, app)
	if err != nil {
		return err
	}

	// Load first so an interrupted previous session surfaces its advisory
	// before the new exchange starts.
	state, err := app.journal.Load(cmd.Context())
	if err != nil {
		return err
	}
	if n := len(state.Entries); n > 0 && state.Entries[n-1].Sender == domain.SenderSystem {
		printEntry(cmd, state.Entries[n-1])
	}

	userEntry := domain.ConversationEntry{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    domain.SenderUser,
		Timestamp: app.now(),
	}
	if err := app.journal.Append(cmd.Context(), userEntry); err != nil {
		return err
	}
	if err := app.journal.Append(cmd.Context(), domain.ConversationEntry{
		ID:        uuid.NewString(),
		Text:      "Thinking...",
		Sender:    domain.SenderCoach,
		Timestamp: app.now(),
		Pending:   true,
	}); err != nil {
		return err
	}
	if err := app.journal.MarkProcessing(cmd.Context(), true); err != nil {
		return err
	}

	reply, err := app.api.AgentCommand(cmd.Context(), token, text)
	if err != nil {
		failure := domain.ConversationEntry{
			ID:        uuid.NewString(),
			Text:      "The coach could not be reached. Your message was saved; try again in a moment.",
			Sender:    domain.SenderSystem,
			Timestamp: app.now(),
		}
		if journalErr := app.journal.ReplacePending(cmd.Context(), failure); journalErr != nil {
			app.logger.Warn("record chat failure", zap.Error(journalErr))
		}
		return err
	}

	coachEntry := domain.ConversationEntry{
		ID:        uuid.NewString(),
		Text:      reply.Reply,
		Sender:    domain.SenderCoach,
		Timestamp: app.now(),
	}
	if err := app.journal.ReplacePending(cmd.Context(), coachEntry); err != nil {
		return err
	}

	printEntry(cmd, userEntry)
	printEntry(cmd, coachEntry)

	if reply.Transaction != nil {
		app.sync.ApplyTransaction(*reply.Transaction)
		if _, err := app.sync.RefreshTransactions(cmd.Context()); err != nil {
			app.logger.Warn("post-command refresh failed", zap.Error(err))
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "(recorded transaction %s: %s %s)\n",
			reply.Transaction.ID, reply.Transaction.Description, reply.Transaction.Amount.StringFixed(2))
	}

	return nil
}

func printEntry(cmd *cobra.Command, entry domain.ConversationEntry) {
	label := "you"
	switch entry.Sender {
	case domain.SenderCoach:
		label = "coach"
	case domain.SenderSystem:
		label = "note"
	}

	text := entry.Text
	if entry.Pending {
		text += " (pending)"
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", label, text)
}
