package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"igunfollow/pkg/checkpoint"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderLogo())

	leftColumn := m.renderLeftColumn()
	rightColumn := m.renderRightColumn()

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftColumn,
		"  ", // spacing
		rightColumn,
	)
	sections = append(sections, mainContent)

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

// renderLogo renders the banner
func (m *Model) renderLogo() string {
	logo := `
╔════════════════════════════════════════════════════════╗
║ ██╗ ██████╗ ██╗   ██╗███╗   ██╗███████╗ ██████╗ ██╗     ║
║ ██║██╔════╝ ██║   ██║████╗  ██║██╔════╝██╔═══██╗██║     ║
║ ██║██║  ███╗██║   ██║██╔██╗ ██║█████╗  ██║   ██║██║     ║
║ ██║██║   ██║██║   ██║██║╚██╗██║██╔══╝  ██║   ██║██║     ║
║ ██║╚██████╔╝╚██████╔╝██║ ╚████║██║     ╚██████╔╝███████╗║
║ ╚═╝ ╚═════╝  ╚═════╝ ╚═╝  ╚═══╝╚═╝      ╚═════╝ ╚══════╝║
║          NON-FOLLOWER CLEANUP - SESSION MONITOR         ║
╚════════════════════════════════════════════════════════╝`

	return logoStyle.Width(m.width).Render(logo)
}

// renderLeftColumn renders the left side of the UI
func (m *Model) renderLeftColumn() string {
	width := (m.width - 4) / 2

	var sections []string
	sections = append(sections, m.renderStatsPanel(width))
	sections = append(sections, m.renderQueuePanel(width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderRightColumn renders the right side of the UI
func (m *Model) renderRightColumn() string {
	width := (m.width - 4) / 2

	var sections []string
	sections = append(sections, m.renderWindowPanel(width))
	sections = append(sections, m.renderLogsPanel(width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatsPanel renders the run statistics panel
func (m *Model) renderStatsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" RUN STATUS ")

	elapsed := time.Since(m.sessionStartTime)

	stateText := string(m.runState)
	stateStyle := statsValueStyle
	switch m.runState {
	case checkpoint.StateRunning:
		stateStyle = successStyle
	case checkpoint.StatePausedRateLimit, checkpoint.StatePausedBackoff:
		stateStyle = warningStyle
	case checkpoint.StateFailed:
		stateStyle = errorStyle
	}

	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("State:"), stateStyle.Render(stateText)),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Session Time:"), statsValueStyle.Render(formatDuration(elapsed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Unfollowed:"), successStyle.Render(fmt.Sprintf("%d", m.applied))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Skipped:"), statsValueStyle.Render(fmt.Sprintf("%d", m.skipped))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Failed:"), errorStyle.Render(fmt.Sprintf("%d", m.failed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Remaining:"), statsValueStyle.Render(fmt.Sprintf("%d", len(m.items)-m.resolvedCount()))),
	}

	if !m.waitUntil.IsZero() && m.runState != checkpoint.StateRunning {
		resume := time.Until(m.waitUntil)
		if resume > 0 {
			stats = append(stats, warningStyle.Render("⏸  resumes in "+formatDuration(resume)))
		}
	}

	bar := m.overall.ViewAs(m.progressRatio())
	stats = append(stats, "", bar)

	content := lipgloss.JoinVertical(lipgloss.Left, stats...)

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderQueuePanel renders the pending queue excerpt
func (m *Model) renderQueuePanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" UNFOLLOW QUEUE ")

	var pending, resolved []QueueItem
	for _, item := range m.items {
		switch item.State {
		case ItemPending, ItemActive:
			pending = append(pending, item)
		default:
			resolved = append(resolved, item)
		}
	}

	var items []string

	if len(pending) > 0 {
		items = append(items, warningStyle.Render(fmt.Sprintf("⏳ %d pending", len(pending))))
		for i := 0; i < 3 && i < len(pending); i++ {
			style := queueItemStyle
			if pending[i].State == ItemActive {
				style = queueItemActiveStyle
			}
			items = append(items, style.Render("• @"+pending[i].Username))
		}
		if len(pending) > 3 {
			items = append(items, lipgloss.NewStyle().Foreground(dimWhite).Render(fmt.Sprintf("  ... and %d more", len(pending)-3)))
		}
	}

	if len(resolved) > 0 {
		items = append(items, "", successStyle.Render(fmt.Sprintf("✓ %d resolved", len(resolved))))
		start := len(resolved) - 3
		if start < 0 {
			start = 0
		}
		for i := start; i < len(resolved); i++ {
			marker := "✓ @"
			if resolved[i].State == ItemFailed {
				marker = "✗ @"
			}
			items = append(items, queueItemCompletedStyle.Render(marker+resolved[i].Username))
		}
	}

	if len(items) == 0 {
		items = append(items, lipgloss.NewStyle().Foreground(dimWhite).Render("Queue is empty"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, items...)

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderWindowPanel renders the hourly rate window status
func (m *Model) renderWindowPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" RATE WINDOW ")

	max := m.windowMax
	if max <= 0 {
		max = 1
	}
	usage := float64(m.windowUsed) / float64(max) * 100

	barWidth := width - 8
	if barWidth < 1 {
		barWidth = 1
	}
	filled := int(usage * float64(barWidth) / 100)
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	barStyle := GetRateLimitStyle(usage)
	bar := barStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", empty))

	content := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("This hour:"),
			barStyle.Render(fmt.Sprintf("%d/%d (%.0f%%)", m.windowUsed, m.windowMax, usage))),
		bar,
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

// renderLogsPanel renders the logs panel
func (m *Model) renderLogsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" SESSION LOGS ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for i := start; i < len(m.logMessages); i++ {
		log := m.logMessages[i]
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := logMessageStyle.Render(log.Message)

		maxMsgLen := width - 25
		if maxMsgLen > 3 && len(message) > maxMsgLen {
			message = message[:maxMsgLen-3] + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	logsHeight := m.height - 30
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m *Model) renderHelp() string {
	help := `
  Navigation:
    q/Q      - Quit the monitor (the run keeps its checkpoint)
    ?        - Toggle this help
    ctrl+l   - Clear logs

  Status Indicators:
    ` + successStyle.Render("Green") + `    - Running/Applied
    ` + warningStyle.Render("Orange") + `   - Paused/Pending
    ` + errorStyle.Render("Red") + `      - Failed

  Icons:
    ⏳       - Pending entry
    ✓        - Resolved entry
    ⏸        - Paused run
`

	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
