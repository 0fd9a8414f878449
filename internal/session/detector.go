package session

import (
	"github.com/ozansz/agent-sessions/internal/procscan"
)

// AgentDetector is implemented once per supported agent family. Adding a
// family means implementing these four operations; the poller needs no
// changes.
type AgentDetector interface {
	// Name is the human-readable agent name, for logs.
	Name() string

	// Type tags the sessions this detector produces.
	Type() AgentType

	// FindProcesses returns this family's live CLI processes. Detectors own
	// their process scanner so CPU readings stay delta-based across polls.
	FindProcesses() []procscan.ProcessInfo

	// FindSessions reconciles live processes with on-disk transcripts and
	// returns at most one Session per process. Processes with no matching
	// transcript are dropped silently.
	FindSessions(procs []procscan.ProcessInfo) []Session
}

// DefaultDetectors returns the registered agent families.
func DefaultDetectors() []AgentDetector {
	return []AgentDetector{
		NewClaudeDetector(),
		NewOpenCodeDetector(),
	}
}
