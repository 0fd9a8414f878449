package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToLogFile(t *testing.T) {
	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "debug", Debug: true})
	defer Close()

	Logger().Info("hello", "key", "value")
	ForComponent(CompSession).Debug("component_event")

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello") {
		t.Error("log file missing info record")
	}
	if !strings.Contains(content, "component_event") {
		t.Error("log file missing component record")
	}
	if !strings.Contains(content, `"component":"session"`) {
		t.Error("component attribute not attached")
	}

	// Default format is JSON, one object per line.
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			t.Errorf("non-JSON log line: %s", line)
		}
	}
}

func TestInitDiscardsWithoutDebug(t *testing.T) {
	Init(Config{Debug: false})
	defer Close()

	// Must not panic, and must not create any files anywhere visible.
	Logger().Info("dropped")
	ForComponent(CompProc).Warn("also dropped")
}

func TestForComponentBeforeInit(t *testing.T) {
	// Component loggers created before Init pick up the real handler later.
	log := ForComponent(CompWatch)

	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "info", Debug: true})
	defer Close()

	log.Info("late_binding")

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "late_binding") {
		t.Error("pre-init component logger did not bind to the real handler")
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "warn", Debug: true})
	defer Close()

	Logger().Info("below_threshold")
	Logger().Warn("at_threshold")

	data, _ := os.ReadFile(filepath.Join(dir, "debug.log"))
	if strings.Contains(string(data), "below_threshold") {
		t.Error("info record logged despite warn level")
	}
	if !strings.Contains(string(data), "at_threshold") {
		t.Error("warn record missing")
	}
}
