package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("stdout only", func(t *testing.T) {
		var buf bytes.Buffer
		logger, closer, err := New(Config{Level: "warn"}, &buf)
		if err != nil {
			t.Fatal(err)
		}
		defer closer.Close()

		logger.Info("hidden")
		logger.Warn("shown", "book_id", "b1")
		out := buf.String()
		if strings.Contains(out, "hidden") || !strings.Contains(out, "book_id=b1") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("mirrors to file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "logs", "bookcast.log")
		logger, closer, err := New(Config{File: path, MaxSizeMB: 1}, &buf)
		if err != nil {
			t.Fatal(err)
		}
		logger.Info("series generation started", "job_id", "j1")
		if err := closer.Close(); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "job_id=j1") || !strings.Contains(buf.String(), "job_id=j1") {
			t.Errorf("expected record in both outputs, file=%q stdout=%q", data, buf.String())
		}
	})

	t.Run("bad level", func(t *testing.T) {
		if _, _, err := New(Config{Level: "chatty"}, nil); err == nil {
			t.Error("expected error")
		}
	})
}
