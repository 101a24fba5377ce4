package logger

import (
	"testing"

	"igunfollow/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "valid config with info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "valid config with debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	valid := []string{"debug", "info", "warn", "warning", "error", "fatal", "disabled", "INFO"}
	for _, level := range valid {
		if _, err := parseLogLevel(level); err != nil {
			t.Errorf("parseLogLevel(%q) unexpected error: %v", level, err)
		}
	}
	if _, err := parseLogLevel("nope"); err == nil {
		t.Error("parseLogLevel(nope) expected error")
	}
}

func TestTestLoggerCapturesFields(t *testing.T) {
	tl := NewTestLogger()
	tl.WithField("source", "following").Warn("collection stalled")
	tl.InfoWithFields("progress", map[string]interface{}{"seen": 24})

	if !tl.HasMessage("WARN", "collection stalled") {
		t.Error("expected captured warning")
	}
	msgs := tl.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Fields["source"] != "following" {
		t.Errorf("expected source field, got %v", msgs[0].Fields)
	}
	if msgs[1].Fields["seen"] != 24 {
		t.Errorf("expected seen field, got %v", msgs[1].Fields)
	}
}
