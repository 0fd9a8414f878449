package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ozansz/agent-sessions/internal/procscan"
)

// fakeDetector feeds canned sessions into the poller.
type fakeDetector struct {
	name     string
	agent    AgentType
	procs    []procscan.ProcessInfo
	sessions []Session
}

func (f *fakeDetector) Name() string                             { return f.name }
func (f *fakeDetector) Type() AgentType                          { return f.agent }
func (f *fakeDetector) FindProcesses() []procscan.ProcessInfo    { return f.procs }
func (f *fakeDetector) FindSessions(_ []procscan.ProcessInfo) []Session {
	return f.sessions
}

func TestPollAggregatesAcrossFamilies(t *testing.T) {
	claude := &fakeDetector{
		name:  "Claude Code",
		agent: AgentClaude,
		sessions: []Session{
			{ID: "c1", Status: StatusWaiting, LastActivityAt: "2026-08-31T10:00:00.000Z"},
			{ID: "c2", Status: StatusProcessing, LastActivityAt: "2026-08-31T09:00:00.000Z"},
		},
	}
	opencode := &fakeDetector{
		name:  "OpenCode",
		agent: AgentOpenCode,
		sessions: []Session{
			{ID: "o1", Status: StatusIdle, LastActivityAt: "2026-08-31T11:00:00.000Z"},
			{ID: "o2", Status: StatusWaiting, LastActivityAt: "2026-08-31T12:00:00.000Z"},
		},
	}

	resp := NewPoller(claude, opencode).Poll()

	require.Equal(t, 4, resp.TotalCount)
	require.Equal(t, 2, resp.WaitingCount)

	ids := make([]string, 0, len(resp.Sessions))
	for _, s := range resp.Sessions {
		ids = append(ids, s.ID)
	}
	// Active first, then waiting newest-first, idle last.
	require.Equal(t, []string{"c2", "o2", "c1", "o1"}, ids)
}

func TestPollEmpty(t *testing.T) {
	resp := NewPoller(&fakeDetector{name: "none", agent: AgentClaude}).Poll()
	require.Equal(t, 0, resp.TotalCount)
	require.Equal(t, 0, resp.WaitingCount)
	require.Empty(t, resp.Sessions)
}

func TestSortSessions(t *testing.T) {
	sessions := []Session{
		{ID: "idle-new", Status: StatusIdle, LastActivityAt: "2026-08-31T12:00:00.000Z"},
		{ID: "think", Status: StatusThinking, LastActivityAt: "2026-08-31T08:00:00.000Z"},
		{ID: "wait-old", Status: StatusWaiting, LastActivityAt: "2026-08-30T10:00:00.000Z"},
		{ID: "proc", Status: StatusProcessing, LastActivityAt: "2026-08-31T09:00:00.000Z"},
		{ID: "wait-new", Status: StatusWaiting, LastActivityAt: "2026-08-31T10:00:00.000Z"},
	}

	SortSessions(sessions)

	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	require.Equal(t, []string{"proc", "think", "wait-new", "wait-old", "idle-new"}, ids)
}

// "Unknown" compares above any digit, so undated sessions lead their tier.
// Pinned down here so a change to the comparison is a conscious one.
func TestSortSessionsUnknownTimestamp(t *testing.T) {
	sessions := []Session{
		{ID: "dated", Status: StatusWaiting, LastActivityAt: "2026-08-31T10:00:00.000Z"},
		{ID: "unknown", Status: StatusWaiting, LastActivityAt: "Unknown"},
	}
	SortSessions(sessions)
	require.Equal(t, "unknown", sessions[0].ID)
}
