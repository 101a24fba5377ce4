package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"igunfollow/pkg/checkpoint"
	"igunfollow/pkg/models"
)

// ItemState represents the state of one queue entry
type ItemState int

const (
	ItemPending ItemState = iota
	ItemActive
	ItemApplied
	ItemSkipped
	ItemFailed
)

// QueueItem represents a single pending unfollow
type QueueItem struct {
	ID       string
	Username string
	State    ItemState
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner spinner.Model
	overall progress.Model

	// Queue state
	items     []QueueItem
	itemIndex map[string]int

	// Run state
	runState  checkpoint.State
	waitUntil time.Time

	// Stats
	applied          int
	skipped          int
	failed           int
	alreadyConsumed  int
	sessionStartTime time.Time

	// Rate window
	windowMax  int
	windowUsed int

	// UI state
	width          int
	height         int
	showHelp       bool
	quitting       bool
	finished       bool
	finalErr       error
	logMessages    []LogMessage
	maxLogMessages int

	// Mutex for thread safety
	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a TUI model over the reconciled queue.
func NewModel(queue *models.ActionQueue, windowMax int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	m := &Model{
		spinner:          s,
		overall:          p,
		itemIndex:        make(map[string]int),
		runState:         checkpoint.StateIdle,
		sessionStartTime: time.Now(),
		logMessages:      []LogMessage{},
		maxLogMessages:   50,
		windowMax:        windowMax,
	}
	for _, entry := range queue.Entries {
		m.itemIndex[entry.ID] = len(m.items)
		m.items = append(m.items, QueueItem{ID: entry.ID, Username: entry.Username})
	}
	return m
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickEverySecond())
}

// resolveItem moves a queue entry to a terminal item state.
func (m *Model) resolveItem(id string, state ItemState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.itemIndex[id]
	if !ok {
		return
	}
	m.items[idx].State = state

	switch state {
	case ItemApplied:
		m.applied++
	case ItemSkipped:
		m.skipped++
	case ItemFailed:
		m.failed++
	}

	// The next unresolved entry becomes active.
	for i := range m.items {
		if m.items[i].State == ItemPending {
			m.items[i].State = ItemActive
			break
		}
	}
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	color := dimWhite
	switch level {
	case "ERROR":
		color = lipgloss.Color("#FF0000")
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	case "INFO":
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// resolvedCount returns how many entries reached a terminal state.
func (m *Model) resolvedCount() int {
	return m.applied + m.skipped + m.failed
}

// progressRatio returns overall completion in [0, 1].
func (m *Model) progressRatio() float64 {
	if len(m.items) == 0 {
		return 1
	}
	return float64(m.resolvedCount()) / float64(len(m.items))
}
