package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log messages so tests can assert on what a component
// reported without parsing console output.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	fields   map[string]interface{}
}

// LogMessage is one captured entry.
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a capturing logger.
func NewTestLogger() *TestLogger {
	return &TestLogger{fields: make(map[string]interface{})}
}

// Messages returns a copy of everything logged so far.
func (l *TestLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// HasMessage reports whether any entry at the level contains the message.
func (l *TestLogger) HasMessage(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m.Level == level && m.Message == msg {
			return true
		}
	}
	return false
}

func (l *TestLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	l.messages = append(l.messages, LogMessage{Level: level, Message: msg, Fields: merged})
}

func (l *TestLogger) Debug(msg string) { l.record("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.record("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.record("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.record("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.record("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.record("DEBUG", msg, fields)
}
func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.record("INFO", msg, fields)
}
func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.record("WARN", msg, fields)
}
func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.record("ERROR", msg, fields)
}

// WithField returns a logger that stamps the field onto every entry. The
// captured messages still land in the root TestLogger.
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	child := &testLoggerChild{root: l, fields: make(map[string]interface{}, len(l.fields)+len(fields))}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *TestLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}

// testLoggerChild carries accumulated fields back to the root recorder.
type testLoggerChild struct {
	root   *TestLogger
	fields map[string]interface{}
}

func (c *testLoggerChild) record(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	c.root.mu.Lock()
	defer c.root.mu.Unlock()
	c.root.messages = append(c.root.messages, LogMessage{Level: level, Message: msg, Fields: merged})
}

func (c *testLoggerChild) Debug(msg string) { c.record("DEBUG", msg, nil) }
func (c *testLoggerChild) Info(msg string)  { c.record("INFO", msg, nil) }
func (c *testLoggerChild) Warn(msg string)  { c.record("WARN", msg, nil) }
func (c *testLoggerChild) Error(msg string) { c.record("ERROR", msg, nil) }
func (c *testLoggerChild) Fatal(msg string) { c.record("FATAL", msg, nil) }

func (c *testLoggerChild) DebugWithFields(msg string, fields map[string]interface{}) {
	c.record("DEBUG", msg, fields)
}
func (c *testLoggerChild) InfoWithFields(msg string, fields map[string]interface{}) {
	c.record("INFO", msg, fields)
}
func (c *testLoggerChild) WarnWithFields(msg string, fields map[string]interface{}) {
	c.record("WARN", msg, fields)
}
func (c *testLoggerChild) ErrorWithFields(msg string, fields map[string]interface{}) {
	c.record("ERROR", msg, fields)
}

func (c *testLoggerChild) WithField(key string, value interface{}) Logger {
	return c.WithFields(map[string]interface{}{key: value})
}

func (c *testLoggerChild) WithFields(fields map[string]interface{}) Logger {
	child := &testLoggerChild{root: c.root, fields: make(map[string]interface{}, len(c.fields)+len(fields))}
	for k, v := range c.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

func (c *testLoggerChild) WithError(err error) Logger {
	if err == nil {
		return c
	}
	return c.WithField("error", err.Error())
}

func (c *testLoggerChild) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
