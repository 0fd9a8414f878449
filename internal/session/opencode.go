package session

import (
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

var opencodeLog = logging.ForComponent(logging.CompSession)

// OpenCodeDetector discovers live OpenCode sessions from the storage tree
// (project/, session/, message/, part/ subdirectories of small JSON files).
type OpenCodeDetector struct {
	// StorageDir is the OpenCode storage root.
	StorageDir string

	scanner *procscan.Scanner
}

// NewOpenCodeDetector returns a detector rooted at the configured OpenCode
// storage directory.
func NewOpenCodeDetector() *OpenCodeDetector {
	return &OpenCodeDetector{
		StorageDir: GetOpenCodeStorageDir(),
		scanner:    procscan.NewScanner(),
	}
}

// Name returns the human-readable agent name.
func (d *OpenCodeDetector) Name() string { return "OpenCode" }

// Type returns the agent type tag.
func (d *OpenCodeDetector) Type() AgentType { return AgentOpenCode }

// FindProcesses returns running opencode processes.
func (d *OpenCodeDetector) FindProcesses() []procscan.ProcessInfo {
	return d.scanner.Snapshot(IsOpenCodeProcess)
}

// IsOpenCodeProcess reports whether a process is the OpenCode TUI.
func IsOpenCodeProcess(name string, _ []string) bool {
	return strings.ToLower(name) == "opencode"
}

// opencodeTime is the created/updated pair OpenCode stamps on its objects,
// in milliseconds since epoch.
type opencodeTime struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}

type opencodeProject struct {
	ID        string       `json:"id"`
	Worktree  string       `json:"worktree"`
	Sandboxes []string     `json:"sandboxes"`
	Time      opencodeTime `json:"time"`
}

type opencodeSession struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"projectID"`
	Directory string       `json:"directory"`
	Title     string       `json:"title"`
	Time      opencodeTime `json:"time"`
}

type opencodeMessage struct {
	ID        string       `json:"id"`
	SessionID string       `json:"sessionID"`
	Role      string       `json:"role"`
	Time      opencodeTime `json:"time"`
}

type opencodePart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// FindSessions matches live opencode processes to projects by worktree (or
// sandbox) containment, then sweeps still-unmatched processes against global
// sessions' directory fields. One session per process, first match wins.
func (d *OpenCodeDetector) FindSessions(procs []procscan.ProcessInfo) []Session {
	if len(procs) == 0 {
		return nil
	}
	if _, err := os.Stat(d.StorageDir); err != nil {
		opencodeLog.Debug("storage_dir_missing", slog.String("dir", d.StorageDir))
		return nil
	}

	projects := d.loadProjects()
	claimed := make(map[int32]bool)
	var sessions []Session

	for _, project := range projects {
		if project.ID == "global" {
			continue
		}
		proc := matchProcessByDir(procs, claimed, project.Worktree, project.Sandboxes)
		if proc == nil {
			continue
		}
		claimed[proc.PID] = true
		opencodeLog.Debug("process_matched",
			slog.Int("pid", int(proc.PID)),
			slog.String("project", project.Worktree),
			slog.Uint64("memory_bytes", proc.MemoryBytes))

		if s := d.latestSessionForProject(project, proc); s != nil {
			sessions = append(sessions, *s)
		}
	}

	// Second pass: global sessions carry their own directory field and can
	// adopt processes the project worktrees did not claim.
	for i := range procs {
		p := &procs[i]
		if claimed[p.PID] || p.Cwd == "" {
			continue
		}
		if s := d.globalSessionForDirectory(p.Cwd, p); s != nil {
			claimed[p.PID] = true
			sessions = append(sessions, *s)
		}
	}

	return sessions
}

// loadProjects reads every project definition, skipping unparseable files.
// Sorted by id so matching order is deterministic.
func (d *OpenCodeDetector) loadProjects() []opencodeProject {
	entries, err := os.ReadDir(filepath.Join(d.StorageDir, "project"))
	if err != nil {
		return nil
	}

	var projects []opencodeProject
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var project opencodeProject
		if readJSONFile(filepath.Join(d.StorageDir, "project", e.Name()), &project) {
			projects = append(projects, project)
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects
}

// latestSessionForProject picks the session with the newest updated stamp and
// assembles the Session snapshot for it.
func (d *OpenCodeDetector) latestSessionForProject(project opencodeProject, proc *procscan.ProcessInfo) *Session {
	sess, ok := d.latestSession(filepath.Join(d.StorageDir, "session", project.ID), nil)
	if !ok {
		return nil
	}

	// The process cwd may be a sandbox or worktree path; prefer it for
	// display so the user sees where the agent actually runs.
	actualPath := proc.Cwd
	if actualPath == "" {
		actualPath = project.Worktree
	}

	return d.buildSession(sess, actualPath, proc)
}

// globalSessionForDirectory finds the newest global session whose directory
// matches (or is a parent of) the process working directory.
func (d *OpenCodeDetector) globalSessionForDirectory(cwd string, proc *procscan.ProcessInfo) *Session {
	sess, ok := d.latestSession(filepath.Join(d.StorageDir, "session", "global"), func(s opencodeSession) bool {
		return cwdWithin(cwd, s.Directory)
	})
	if !ok {
		return nil
	}
	return d.buildSession(sess, sess.Directory, proc)
}

// latestSession scans a session directory for the entry with the largest
// updated timestamp, optionally filtered.
func (d *OpenCodeDetector) latestSession(dir string, accept func(opencodeSession) bool) (opencodeSession, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return opencodeSession{}, false
	}

	var best opencodeSession
	found := false
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var sess opencodeSession
		if !readJSONFile(filepath.Join(dir, e.Name()), &sess) {
			continue
		}
		if accept != nil && !accept(sess) {
			continue
		}
		if !found || sess.Time.Updated > best.Time.Updated {
			best = sess
			found = true
		}
	}
	return best, found
}

// buildSession assembles the reported Session for one OpenCode session.
func (d *OpenCodeDetector) buildSession(sess opencodeSession, projectPath string, proc *procscan.ProcessInfo) *Session {
	role, text := d.lastMessage(sess.ID)

	status := opencodeStatus(proc.CPUPercent, role)

	// Fall back to the session title when no message has displayable text.
	preview := text
	if preview == "" {
		preview = sess.Title
	}

	return &Session{
		ID:              sess.ID,
		AgentType:       AgentOpenCode,
		ProjectName:     projectNameFromPath(projectPath),
		ProjectPath:     projectPath,
		GitBranch:       git.GetCurrentBranch(projectPath),
		GitHubURL:       git.GitHubURL(projectPath),
		Status:          status,
		LastMessage:     preview,
		LastMessageRole: role,
		LastActivityAt:  millisToISO(sess.Time.Updated),
		PID:             proc.PID,
		CPUUsage:        proc.CPUPercent,
	}
}

// opencodeStatus classifies an OpenCode session. This family cannot separate
// "processing" from "thinking", so high CPU short-circuits straight to
// processing and the message role settles the rest.
func opencodeStatus(cpu float64, lastRole string) SessionStatus {
	switch {
	case cpu > cpuActiveThreshold:
		return StatusProcessing
	case lastRole == "assistant":
		return StatusWaiting
	case lastRole == "user":
		return StatusProcessing
	default:
		return StatusIdle
	}
}

// lastMessage returns the role and preview text of the newest message with
// displayable content for a session, skipping instructional boilerplate.
func (d *OpenCodeDetector) lastMessage(sessionID string) (role, text string) {
	dir := filepath.Join(d.StorageDir, "message", sessionID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ""
	}

	var messages []opencodeMessage
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var msg opencodeMessage
		if readJSONFile(filepath.Join(dir, e.Name()), &msg) {
			messages = append(messages, msg)
		}
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Time.Created > messages[j].Time.Created
	})

	for _, msg := range messages {
		if t := d.messageText(msg.ID); t != "" {
			return msg.Role, t
		}
	}
	return "", ""
}

// messageText extracts the preview text from a message's parts. Text parts
// win over reasoning parts; system-prompt boilerplate is not displayable.
func (d *OpenCodeDetector) messageText(messageID string) string {
	dir := filepath.Join(d.StorageDir, "part", messageID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var textContent, reasoningContent string
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var part opencodePart
		if !readJSONFile(filepath.Join(dir, e.Name()), &part) {
			continue
		}
		switch part.Type {
		case "text":
			if part.Text != "" {
				textContent = part.Text
			}
		case "reasoning":
			if reasoningContent == "" && part.Text != "" {
				reasoningContent = part.Text
			}
		}
	}

	content := textContent
	if content == "" {
		content = reasoningContent
	}
	if content == "" {
		return ""
	}

	if isInstructionBoilerplate(content) {
		return ""
	}

	return truncatePreview(content, opencodePreviewMaxLen)
}

// isInstructionBoilerplate detects injected system prompts (XML-formatted
// mode instructions) that should never be shown as a preview.
func isInstructionBoilerplate(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "<") &&
		(strings.Contains(trimmed, "ultrawork") || strings.Contains(trimmed, "mode>"))
}

// millisToISO converts an OpenCode millisecond timestamp to the fixed-width
// ISO-8601 form the global sort relies on.
func millisToISO(ms int64) string {
	if ms <= 0 {
		return "Unknown"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

// readJSONFile decodes one JSON object file, reporting success. Parse
// failures are skipped quietly so one corrupt file cannot abort a scan.
func readJSONFile(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		opencodeLog.Debug("malformed_json_skipped", slog.String("path", path))
		return false
	}
	return true
}
