package session

// AgentType identifies which agent family a session belongs to.
type AgentType string

const (
	AgentClaude   AgentType = "claude"
	AgentOpenCode AgentType = "opencode"
)

// SessionStatus is the inferred state of a conversation.
type SessionStatus string

const (
	// StatusThinking means the agent is generating a response.
	StatusThinking SessionStatus = "thinking"
	// StatusProcessing means a tool is running or output is streaming.
	StatusProcessing SessionStatus = "processing"
	// StatusWaiting means the session needs user attention.
	StatusWaiting SessionStatus = "waiting"
	// StatusIdle means nothing is happening.
	StatusIdle SessionStatus = "idle"
)

// Session is a read-only snapshot of one live agent conversation, matched to
// exactly one OS process. It is rebuilt from scratch on every poll.
type Session struct {
	ID                  string        `json:"id"`
	AgentType           AgentType     `json:"agentType"`
	ProjectName         string        `json:"projectName"`
	ProjectPath         string        `json:"projectPath"`
	GitBranch           string        `json:"gitBranch,omitempty"`
	GitHubURL           string        `json:"githubUrl,omitempty"`
	Status              SessionStatus `json:"status"`
	LastMessage         string        `json:"lastMessage,omitempty"`
	LastMessageRole     string        `json:"lastMessageRole,omitempty"`
	LastActivityAt      string        `json:"lastActivityAt"`
	PID                 int32         `json:"pid"`
	CPUUsage            float64       `json:"cpuUsage"`
	ActiveSubagentCount int           `json:"activeSubagentCount"`
}

// SessionsResponse is the aggregate returned by one poll.
type SessionsResponse struct {
	Sessions     []Session `json:"sessions"`
	TotalCount   int       `json:"totalCount"`
	WaitingCount int       `json:"waitingCount"`
}
