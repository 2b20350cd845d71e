package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lherron/fitmigrate/internal/config"
)

// SourceUserID is the owner whose rows the fixtures expect to be migrated
const SourceUserID = "0a17aa0e-65a0-41ad-a0af-b7ce6ba83fc4"

// OtherUserID owns rows that must never be migrated
const OtherUserID = "9f1c2b3a-0000-4000-8000-000000000001"

// WriteFile writes content to a file in a temporary directory
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

// ReadFile reads content from a file
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(data)
}

// CSV joins a header and records into CSV text. Fields are written as-is,
// so callers quote anything that needs it.
func CSV(header string, records ...string) string {
	return header + "\n" + strings.Join(records, "\n") + "\n"
}

// Config returns a configuration that reads from sourceDir and writes to
// out.sql inside a fresh temp directory
func Config(t *testing.T, sourceDir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SourceDir = sourceDir
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.sql")
	cfg.SourceUserID = SourceUserID
	return cfg
}

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// NonEmptyLines splits text into lines, dropping blank ones
func NonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// InsertLines returns only the INSERT statements in a script
func InsertLines(script string) []string {
	var lines []string
	for _, line := range NonEmptyLines(script) {
		if strings.HasPrefix(line, "INSERT INTO ") {
			lines = append(lines, line)
		}
	}
	return lines
}
