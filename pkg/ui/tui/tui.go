package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"igunfollow/pkg/checkpoint"
	"igunfollow/pkg/executor"
	"igunfollow/pkg/models"
)

// TUI represents the terminal user interface
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a session monitor over the reconciled queue.
func NewTUI(queue *models.ActionQueue, windowMax int) *TUI {
	model := NewModel(queue, windowMax)
	program := tea.NewProgram(model, tea.WithAltScreen())

	return &TUI{
		program: program,
		model:   model,
	}
}

// Start starts the TUI and blocks until it exits
func (t *TUI) Start() error {
	go func() {
		// Kick the countdown refresh once the program is up
		time.Sleep(100 * time.Millisecond)
		t.program.Send(TickMsg(time.Now()))
	}()

	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// HandleExecutorEvent translates executor progress into TUI messages. Wire it
// as the executor's OnEvent callback.
func (t *TUI) HandleExecutorEvent(ev executor.Event) {
	switch ev.Kind {
	case executor.EventActionApplied:
		t.Send(ActionAppliedMsg{ID: ev.Entry.ID, Username: ev.Entry.Username})
	case executor.EventActionSkipped:
		t.Send(ActionSkippedMsg{ID: ev.Entry.ID, Username: ev.Entry.Username})
	case executor.EventActionFailed:
		t.Send(ActionFailedMsg{ID: ev.Entry.ID, Username: ev.Entry.Username, Error: ev.Err})
	case executor.EventStateChange:
		t.Send(RunStateMsg{State: ev.State})
	case executor.EventWaiting:
		t.Send(RunStateMsg{State: ev.State, Until: time.Now().Add(ev.Wait)})
	}
}

// UpdateWindow updates the rate window usage display
func (t *TUI) UpdateWindow(used, max int) {
	t.Send(WindowUpdateMsg{Used: used, Max: max})
}

// Done marks the run as finished
func (t *TUI) Done(err error) {
	t.Send(RunDoneMsg{Err: err})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	t.Send(LogMsg{Level: level, Message: message})
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogSuccess logs a success message
func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}

// State returns the run state currently displayed
func (t *TUI) State() checkpoint.State {
	t.model.mu.RLock()
	defer t.model.mu.RUnlock()
	return t.model.runState
}
