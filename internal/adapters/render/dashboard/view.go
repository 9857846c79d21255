package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/avelara/coachctl/internal/application"
	"github.com/avelara/coachctl/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

type RenderOptions struct {
	Now time.Time
	// MaxTransactions caps the transactions section; zero means 10.
	MaxTransactions int
}

func renderView(snapshot application.DashboardSnapshot, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Financial Coaching Dashboard"),
		sessionLine(snapshot.Session, opts, s),
	}

	lines = append(lines, s.section.Render(renderGoals(snapshot.Goals, opts, s)))
	lines = append(lines, s.section.Render(renderConnections(snapshot.Connections, opts, s)))
	lines = append(lines, s.section.Render(renderTransactions(snapshot.Transactions, opts, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sessionLine(session application.SessionStatus, opts RenderOptions, s styles) string {
	switch session.State {
	case application.SessionAuthenticated, application.SessionDegraded:
	default:
		return s.warning.Render("Not signed in. Run `coachctl login` to begin.")
	}

	name := "unknown user"
	tier := ""
	if session.User != nil {
		name = session.User.DisplayName
		if name == "" {
			name = session.User.Email
		}
		tier = session.User.Tier.Label()
	}

	line := s.user.Render(name)
	if tier != "" {
		line = lipgloss.JoinHorizontal(lipgloss.Top, line, " ", s.header.Render("("+tier+")"))
	}

	if session.State == application.SessionDegraded {
		note := "offline copy"
		if !session.CachedAt.IsZero() && !opts.Now.IsZero() {
			note = fmt.Sprintf("offline copy from %s", formatAge(opts.Now.Sub(session.CachedAt)))
		}
		line = lipgloss.JoinHorizontal(lipgloss.Top, line, " ", s.degraded.Render("["+note+"]"))
	}

	return line
}

func renderGoals(state application.SourceState[domain.Goal], opts RenderOptions, s styles) string {
	lines := []string{s.header.Render(sectionHeader("Goals", len(state.Items), state, opts))}

	if len(state.Items) == 0 {
		lines = append(lines, s.empty.Render("No goals yet."))
		return joinSection(lines, state, s)
	}

	for _, goal := range state.Items {
		lines = append(lines, goalLine(goal, s))
	}

	return joinSection(lines, state, s)
}

func goalLine(goal domain.Goal, s styles) string {
	progress := goal.Progress()
	bar := renderProgressBar(progress, 24, s)
	name := s.goalName.Render(fmt.Sprintf("%-20s", truncate(goal.Name, 20)))
	meta := s.goalMeta.Render(fmt.Sprintf("%s / %s (%3.0f%%)",
		formatAmount(goal.SavedAmount), formatAmount(goal.TargetAmount), progress*100))

	line := lipgloss.JoinHorizontal(lipgloss.Top, name, " ", bar, " ", meta)

	if !goal.TargetDate.IsZero() {
		line = lipgloss.JoinHorizontal(lipgloss.Top, line, " ",
			s.goalMeta.Render("by "+goal.TargetDate.Format("02 Jan 2006")))
	}

	return line
}

func renderConnections(state application.SourceState[domain.Connection], opts RenderOptions, s styles) string {
	lines := []string{s.header.Render(sectionHeader("Linked accounts", len(state.Items), state, opts))}

	if len(state.Items) == 0 {
		lines = append(lines, s.empty.Render("No linked accounts."))
		return joinSection(lines, state, s)
	}

	for _, conn := range state.Items {
		lines = append(lines, connectionLine(conn, opts, s))
	}

	return joinSection(lines, state, s)
}

func connectionLine(conn domain.Connection, opts RenderOptions, s styles) string {
	name := s.detail.Render(fmt.Sprintf("%-24s", truncate(conn.Institution, 24)))
	status := connectionStatusLabel(conn.Status, s)

	line := lipgloss.JoinHorizontal(lipgloss.Top, name, " ", status)

	if !conn.LastSyncedAt.IsZero() && !opts.Now.IsZero() {
		line = lipgloss.JoinHorizontal(lipgloss.Top, line, " ",
			s.goalMeta.Render(fmt.Sprintf("synced %s ago", formatAge(opts.Now.Sub(conn.LastSyncedAt)))))
	}

	return line
}

func connectionStatusLabel(status domain.ConnectionStatus, s styles) string {
	switch status {
	case domain.ConnectionActive:
		return s.amount.Render("active")
	case domain.ConnectionSyncing:
		return s.degraded.Render("syncing")
	case domain.ConnectionError:
		return s.warning.Render("error")
	case domain.ConnectionDisconnected:
		return s.empty.Render("disconnected")
	default:
		return s.empty.Render(string(status))
	}
}

func renderTransactions(state application.SourceState[domain.Transaction], opts RenderOptions, s styles) string {
	lines := []string{s.header.Render(sectionHeader("Recent transactions", len(state.Items), state, opts))}

	if len(state.Items) == 0 {
		lines = append(lines, s.empty.Render("No transactions."))
		return joinSection(lines, state, s)
	}

	limit := opts.MaxTransactions
	if limit <= 0 {
		limit = 10
	}

	shown := state.Items
	if len(shown) > limit {
		shown = shown[:limit]
	}

	for _, t := range shown {
		lines = append(lines, transactionLine(t, s))
	}
	if hidden := len(state.Items) - len(shown); hidden > 0 {
		lines = append(lines, s.empty.Render(fmt.Sprintf("... and %d more", hidden)))
	}

	return joinSection(lines, state, s)
}

func transactionLine(t domain.Transaction, s styles) string {
	amountStyle := s.amount
	if t.Amount.IsNegative() {
		amountStyle = s.amountNeg
	}

	date := "        "
	if !t.OccurredOn.IsZero() {
		date = t.OccurredOn.Format("02 Jan")
	}

	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.goalMeta.Render(date),
		"  ",
		s.detail.Render(fmt.Sprintf("%-28s", truncate(t.Description, 28))),
		" ",
		amountStyle.Render(fmt.Sprintf("%12s", formatAmount(t.Amount))),
	)

	if t.Category != "" {
		line = lipgloss.JoinHorizontal(lipgloss.Top, line, "  ", s.goalMeta.Render(t.Category))
	}

	return line
}

// sectionHeader annotates a section with its freshness; an error shows as
// stale data still being displayed, never as a blank section.
func sectionHeader[T domain.Keyed](title string, count int, state application.SourceState[T], opts RenderOptions) string {
	header := fmt.Sprintf("%s: %d", title, count)

	if state.Loading {
		return header + " (refreshing...)"
	}
	if !state.LastFetchedAt.IsZero() && !opts.Now.IsZero() {
		header += fmt.Sprintf(" (as of %s ago)", formatAge(opts.Now.Sub(state.LastFetchedAt)))
	}

	return header
}

func joinSection[T domain.Keyed](lines []string, state application.SourceState[T], s styles) string {
	if state.Err != nil {
		lines = append(lines, s.warning.Render("refresh failed; showing last known data"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProgressBar(fraction float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	filled := int(math.Round(float64(width) * fraction))
	if filled > width {
		filled = width
	}

	empty := width - filled
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", empty))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func formatAmount(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

func formatAge(age time.Duration) string {
	if age < 0 {
		age = 0
	}
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}

func truncate(v string, max int) string {
	if len(v) <= max {
		return v
	}
	if max <= 3 {
		return v[:max]
	}
	return v[:max-3] + "..."
}
