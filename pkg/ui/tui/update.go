package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"igunfollow/pkg/checkpoint"
)

// Message types for the TUI

// ActionAppliedMsg is sent when an unfollow was confirmed
type ActionAppliedMsg struct {
	ID       string
	Username string
}

// ActionSkippedMsg is sent when an entry resolved without an action
type ActionSkippedMsg struct {
	ID       string
	Username string
}

// ActionFailedMsg is sent when an entry was abandoned
type ActionFailedMsg struct {
	ID       string
	Username string
	Error    error
}

// RunStateMsg is sent on executor state transitions and pauses
type RunStateMsg struct {
	State checkpoint.State
	Until time.Time
}

// WindowUpdateMsg is sent to update rate window usage
type WindowUpdateMsg struct {
	Used int
	Max  int
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// RunDoneMsg is sent when the run finishes
type RunDoneMsg struct {
	Err error
}

// TickMsg is sent periodically to refresh clocks and countdowns
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickEverySecond()

	case ActionAppliedMsg:
		m.resolveItem(msg.ID, ItemApplied)
		m.AddLogMessage("SUCCESS", "Unfollowed @"+msg.Username)
		return m, nil

	case ActionSkippedMsg:
		m.resolveItem(msg.ID, ItemSkipped)
		m.AddLogMessage("INFO", "Skipped @"+msg.Username+" (nothing to undo)")
		return m, nil

	case ActionFailedMsg:
		m.resolveItem(msg.ID, ItemFailed)
		if msg.Error != nil {
			m.AddLogMessage("ERROR", "Gave up on @"+msg.Username+": "+msg.Error.Error())
		} else {
			m.AddLogMessage("ERROR", "Gave up on @"+msg.Username)
		}
		return m, nil

	case RunStateMsg:
		m.mu.Lock()
		m.runState = msg.State
		m.waitUntil = msg.Until
		m.mu.Unlock()
		switch msg.State {
		case checkpoint.StatePausedRateLimit:
			m.AddLogMessage("WARN", "Hourly window exhausted, waiting")
		case checkpoint.StatePausedBackoff:
			m.AddLogMessage("WARN", "Block signal detected, backing off")
		}
		return m, nil

	case WindowUpdateMsg:
		m.mu.Lock()
		m.windowUsed = msg.Used
		m.windowMax = msg.Max
		m.mu.Unlock()
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil

	case RunDoneMsg:
		m.mu.Lock()
		m.finished = true
		m.finalErr = msg.Err
		m.mu.Unlock()
		if msg.Err != nil {
			m.AddLogMessage("ERROR", "Run stopped: "+msg.Err.Error())
		} else {
			m.AddLogMessage("SUCCESS", "Run completed")
		}
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		// Clear logs
		m.mu.Lock()
		m.logMessages = []LogMessage{}
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// Commands

// tickEverySecond returns a command driving the countdown refresh
func tickEverySecond() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
