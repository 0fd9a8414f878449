package session

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ozansz/agent-sessions/internal/git"
	"github.com/ozansz/agent-sessions/internal/logging"
	"github.com/ozansz/agent-sessions/internal/procscan"
)

var claudeLog = logging.ForComponent(logging.CompSession)

// monitorProcessNames are our own binary names (and the legacy tray app's),
// excluded from discovery so the monitor never reports itself.
var monitorProcessNames = []string{"agent-sessions", "claude-sessions"}

// ClaudeDetector discovers live Claude Code sessions by reconciling running
// claude processes with JSONL transcripts under the projects directory.
type ClaudeDetector struct {
	// ProjectsDir is the transcript root, one encoded directory per project.
	ProjectsDir string

	scanner *procscan.Scanner
}

// NewClaudeDetector returns a detector rooted at the configured Claude Code
// projects directory.
func NewClaudeDetector() *ClaudeDetector {
	return &ClaudeDetector{
		ProjectsDir: filepath.Join(GetClaudeConfigDir(), "projects"),
		scanner:     procscan.NewScanner(),
	}
}

// Name returns the human-readable agent name.
func (d *ClaudeDetector) Name() string { return "Claude Code" }

// Type returns the agent type tag.
func (d *ClaudeDetector) Type() AgentType { return AgentClaude }

// FindProcesses returns running Claude Code CLI processes.
func (d *ClaudeDetector) FindProcesses() []procscan.ProcessInfo {
	return d.scanner.Snapshot(IsClaudeProcess)
}

// IsClaudeProcess reports whether a process looks like the Claude Code CLI.
// Claude Code runs as a node process with "claude" as the first command
// argument, so the command line is checked rather than the process name.
func IsClaudeProcess(name string, args []string) bool {
	for _, own := range monitorProcessNames {
		if strings.Contains(name, own) {
			return false
		}
	}
	if len(args) == 0 {
		return false
	}
	return procscan.BaseName(args[0]) == "claude"
}

// FindSessions matches each project directory to at most one live process and
// reads that project's newest transcript. Projects without a running process
// are skipped; a claimed PID is never matched twice.
func (d *ClaudeDetector) FindSessions(procs []procscan.ProcessInfo) []Session {
	if len(procs) == 0 {
		return nil
	}

	entries, err := os.ReadDir(d.ProjectsDir)
	if err != nil {
		claudeLog.Debug("projects_dir_unreadable",
			slog.String("dir", d.ProjectsDir), slog.String("error", err.Error()))
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	claimed := make(map[int32]bool)
	var sessions []Session

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		projectPath := DecodeProjectDir(e.Name())

		proc := matchProcessByDir(procs, claimed, projectPath, nil)
		if proc == nil {
			continue
		}
		claimed[proc.PID] = true
		claudeLog.Debug("process_matched",
			slog.Int("pid", int(proc.PID)),
			slog.String("project", projectPath),
			slog.Uint64("memory_bytes", proc.MemoryBytes))

		s := d.readSession(filepath.Join(d.ProjectsDir, e.Name()), projectPath, proc)
		if s != nil {
			sessions = append(sessions, *s)
		}
	}

	return sessions
}

// matchProcessByDir returns the first unclaimed process whose working
// directory equals dir or one of extra, or sits underneath one of them.
func matchProcessByDir(procs []procscan.ProcessInfo, claimed map[int32]bool, dir string, extra []string) *procscan.ProcessInfo {
	for i := range procs {
		p := &procs[i]
		if claimed[p.PID] || p.Cwd == "" {
			continue
		}
		if cwdWithin(p.Cwd, dir) {
			return p
		}
		for _, alt := range extra {
			if cwdWithin(p.Cwd, alt) {
				return p
			}
		}
	}
	return nil
}

// cwdWithin reports whether cwd equals root or lives inside it.
func cwdWithin(cwd, root string) bool {
	return cwd == root || strings.HasPrefix(cwd, root+"/")
}

// claudeLogRecord is the subset of a Claude Code JSONL line we care about.
type claudeLogRecord struct {
	SessionID string         `json:"sessionId"`
	GitBranch string         `json:"gitBranch"`
	Timestamp string         `json:"timestamp"`
	Message   *claudeMessage `json:"message"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// readSession builds a Session from the most recent transcript in projectDir.
// Returns nil when no usable transcript exists, which drops the process from
// the report rather than erroring.
func (d *ClaudeDetector) readSession(projectDir, projectPath string, proc *procscan.ProcessInfo) *Session {
	jsonlPath, modTime, ok := newestTranscript(projectDir)
	if !ok {
		return nil
	}

	records := readTailRecords(jsonlPath, jsonlTailWindow)
	if len(records) == 0 {
		return nil
	}

	var (
		sessionID  string
		gitBranch  string
		timestamp  string
		signals    TranscriptSignals
		gotSignals bool
	)

	// Newest to oldest: the first record with a session id wins, likewise
	// for branch, timestamp, and status signals. Stops once the id and
	// signals are in hand; branch and timestamp ride along on the way.
	for i := len(records) - 1; i >= 0; i-- {
		var rec claudeLogRecord
		if err := json.Unmarshal(records[i], &rec); err != nil {
			continue
		}
		if sessionID == "" && rec.SessionID != "" {
			sessionID = rec.SessionID
		}
		if gitBranch == "" && rec.GitBranch != "" {
			gitBranch = rec.GitBranch
		}
		if timestamp == "" && rec.Timestamp != "" {
			timestamp = rec.Timestamp
		}
		if !gotSignals && rec.Message != nil && len(rec.Message.Content) > 0 {
			signals = TranscriptSignals{
				LastMessageRole: rec.Message.Role,
				HasToolUse:      hasToolUse(rec.Message.Content),
				HasToolResult:   hasToolResult(rec.Message.Content),
				IsLocalCommand:  isLocalSlashCommand(rec.Message.Content),
				IsInterrupted:   isInterruptedRequest(rec.Message.Content),
			}
			gotSignals = true
		}
		if sessionID != "" && gotSignals {
			break
		}
	}

	if sessionID == "" {
		claudeLog.Debug("transcript_without_session_id", slog.String("path", jsonlPath))
		return nil
	}

	// The record that decided the status is not necessarily the one with
	// human-readable text (tool results have none), so the preview gets its
	// own newest-to-oldest walk.
	var preview string
	for i := len(records) - 1; i >= 0; i-- {
		var rec claudeLogRecord
		if err := json.Unmarshal(records[i], &rec); err != nil || rec.Message == nil {
			continue
		}
		if text := extractTextContent(rec.Message.Content); text != "" {
			preview = truncatePreview(text, claudePreviewMaxLen)
			break
		}
	}

	signals.FileRecentlyModified = time.Since(modTime) <= recentModifyWindow
	status := DetermineStatus(signals)

	if timestamp == "" {
		timestamp = "Unknown"
	}

	return &Session{
		ID:                  sessionID,
		AgentType:           AgentClaude,
		ProjectName:         projectNameFromPath(projectPath),
		ProjectPath:         projectPath,
		GitBranch:           gitBranch,
		GitHubURL:           git.GitHubURL(projectPath),
		Status:              status,
		LastMessage:         preview,
		LastMessageRole:     signals.LastMessageRole,
		LastActivityAt:      timestamp,
		PID:                 proc.PID,
		CPUUsage:            proc.CPUPercent,
		ActiveSubagentCount: countActiveSubagents(projectDir),
	}
}

// newestTranscript returns the most recently modified main transcript in dir.
// Sub-agent files (agent-*.jsonl) track side conversations and never drive
// the main session.
func newestTranscript(dir string) (path string, modTime time.Time, ok bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", time.Time{}, false
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".jsonl") || strings.HasPrefix(name, "agent-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !ok || info.ModTime().After(modTime) {
			path = filepath.Join(dir, name)
			modTime = info.ModTime()
			ok = true
		}
	}
	return path, modTime, ok
}

// countActiveSubagents counts agent-*.jsonl files written recently enough to
// still be considered live side conversations.
func countActiveSubagents(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "agent-") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) <= subagentActiveWindow {
			count++
		}
	}
	return count
}

// readTailRecords returns up to window trailing non-blank lines of a JSONL
// file, oldest first. Unreadable files yield nothing.
func readTailRecords(path string, window int) [][]byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	ring := make([][]byte, 0, window)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		if len(ring) >= window {
			ring = ring[1:]
		}
		ring = append(ring, cp)
	}
	if err := scanner.Err(); err != nil {
		claudeLog.Debug("transcript_scan_failed",
			slog.String("path", path), slog.String("error", err.Error()))
	}
	return ring
}
