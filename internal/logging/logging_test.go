package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level   string
		wantErr bool
		debug   bool
	}{
		{level: "", debug: false},
		{level: "debug", debug: true},
		{level: "warn", debug: false},
		{level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.Level = tt.level
			logger, err := New(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := logger.Core().Enabled(zap.DebugLevel); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
		})
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "roomlink.log")
	cfg := DefaultConfig()
	cfg.JSON = true
	cfg.File = path

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("room joined", zap.Int32("user_id", 7))
	Sync(logger)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"room joined"`) || !strings.Contains(line, `"user_id":7`) {
		t.Errorf("log line = %q", line)
	}
}

func TestSyncNil(t *testing.T) {
	t.Parallel()
	Sync(nil)
}
