package session

import (
	"encoding/json"
	"strings"
	"time"
)

// Product-tuned constants. Values are load-bearing; see status tests before
// touching them.
const (
	// cpuActiveThreshold is the CPU percentage above which a process is
	// considered busy regardless of transcript contents.
	cpuActiveThreshold = 5.0

	// recentModifyWindow is how fresh a transcript write must be to count
	// as "still active".
	recentModifyWindow = 3 * time.Second

	// claudePreviewMaxLen bounds Claude Code message previews.
	claudePreviewMaxLen = 100

	// opencodePreviewMaxLen bounds OpenCode message previews.
	opencodePreviewMaxLen = 200

	// jsonlTailWindow is how many trailing JSONL records are inspected.
	jsonlTailWindow = 50

	// subagentActiveWindow is how recently an agent-*.jsonl sidecar file
	// must have been written to count as an active sub-agent.
	subagentActiveWindow = 5 * time.Minute
)

// TranscriptSignals are the facts extracted from a transcript tail that
// drive status inference.
type TranscriptSignals struct {
	// LastMessageRole is "assistant", "user", or "" when unknown.
	LastMessageRole string
	// HasToolUse is true when the last message carries a tool_use block.
	HasToolUse bool
	// HasToolResult is true when the last message carries a tool_result block.
	HasToolResult bool
	// IsLocalCommand is true when the message is a local slash command that
	// never triggers an agent turn.
	IsLocalCommand bool
	// IsInterrupted is true when the user cancelled the request.
	IsInterrupted bool
	// FileRecentlyModified is true when the transcript was written within
	// recentModifyWindow.
	FileRecentlyModified bool
}

// DetermineStatus classifies a session from its transcript signals.
//
// The file-recency bit is the tie-breaker between "actively working" and
// "stuck/abandoned" whenever the conversational role alone is ambiguous:
//   - assistant + tool_use + fresh file  -> tool still executing (processing)
//   - assistant + tool_use + stale file  -> stalled, needs attention (waiting)
//   - assistant text + fresh file        -> still streaming (processing)
//   - assistant text + stale file        -> turn done, user's move (waiting)
//   - user local command or interrupt    -> no agent turn follows (waiting)
//   - user tool_result + fresh file      -> agent consuming result (thinking)
//   - user input + fresh file            -> agent generating (thinking)
//   - user anything + stale file         -> stuck (waiting)
//   - unknown role                       -> thinking if fresh, else idle
func DetermineStatus(sig TranscriptSignals) SessionStatus {
	switch sig.LastMessageRole {
	case "assistant":
		if sig.HasToolUse {
			if sig.FileRecentlyModified {
				return StatusProcessing
			}
			return StatusWaiting
		}
		if sig.FileRecentlyModified {
			return StatusProcessing
		}
		return StatusWaiting
	case "user":
		if sig.IsLocalCommand || sig.IsInterrupted {
			return StatusWaiting
		}
		if sig.HasToolResult {
			if sig.FileRecentlyModified {
				return StatusThinking
			}
			return StatusWaiting
		}
		if sig.FileRecentlyModified {
			return StatusThinking
		}
		return StatusWaiting
	default:
		if sig.FileRecentlyModified {
			return StatusThinking
		}
		return StatusIdle
	}
}

// StatusSortPriority returns the sort tier for a status; lower sorts first.
// Active sessions lead, then ones needing attention, then idle.
func StatusSortPriority(s SessionStatus) int {
	switch s {
	case StatusThinking, StatusProcessing:
		return 0
	case StatusWaiting:
		return 1
	default:
		return 2
	}
}

// contentBlock is one element of a typed message-content list.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// hasBlockOfType reports whether content is a block list containing typ.
func hasBlockOfType(content json.RawMessage, typ string) bool {
	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return false
	}
	for _, b := range blocks {
		if b.Type == typ {
			return true
		}
	}
	return false
}

// hasToolUse reports whether message content contains a tool_use block.
func hasToolUse(content json.RawMessage) bool {
	return hasBlockOfType(content, "tool_use")
}

// hasToolResult reports whether message content contains a tool_result block.
func hasToolResult(content json.RawMessage) bool {
	return hasBlockOfType(content, "tool_result")
}

// extractTextContent returns the displayable text of a message: the content
// itself when it is a plain string, otherwise the first "text" block.
func extractTextContent(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}
	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return ""
	}
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			return b.Text
		}
	}
	return ""
}

// localSlashCommands are handled by the CLI itself and never reach the model.
var localSlashCommands = []string{
	"/clear",
	"/compact",
	"/help",
	"/config",
	"/cost",
	"/doctor",
	"/init",
	"/login",
	"/logout",
	"/memory",
	"/model",
	"/permissions",
	"/pr-comments",
	"/review",
	"/status",
	"/terminal-setup",
	"/vim",
}

// isLocalSlashCommand reports whether the message text is a local slash
// command (exact, or command followed by arguments).
func isLocalSlashCommand(content json.RawMessage) bool {
	trimmed := strings.TrimSpace(extractTextContent(content))
	for _, cmd := range localSlashCommands {
		if trimmed == cmd || strings.HasPrefix(trimmed, cmd+" ") {
			return true
		}
	}
	return false
}

// interruptedMarker is what Claude Code writes when the user presses Escape.
const interruptedMarker = "[Request interrupted by user]"

// isInterruptedRequest reports whether the message records a cancelled turn.
func isInterruptedRequest(content json.RawMessage) bool {
	return strings.Contains(extractTextContent(content), interruptedMarker)
}

// truncatePreview flattens newlines and bounds s to maxLen bytes, appending
// an ellipsis when cut.
func truncatePreview(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
