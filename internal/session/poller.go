package session

import (
	"log/slog"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/ozansz/agent-sessions/internal/logging"
)

var pollLog = logging.ForComponent(logging.CompStatus)

// Poller runs every registered agent family and aggregates the results into
// one ordered response. It holds the detectors (and through them the
// long-lived process tables) for the lifetime of the monitor.
type Poller struct {
	detectors []AgentDetector
	group     singleflight.Group
}

// NewPoller creates a Poller over the given detectors, defaulting to all
// registered families.
func NewPoller(detectors ...AgentDetector) *Poller {
	if len(detectors) == 0 {
		detectors = DefaultDetectors()
	}
	return &Poller{detectors: detectors}
}

// Poll performs one full scan and returns the ordered aggregate. Concurrent
// callers share a single scan; the natural usage is one caller on a timer.
// Poll never fails — the worst case is an empty response.
func (p *Poller) Poll() SessionsResponse {
	v, _, _ := p.group.Do("poll", func() (any, error) {
		return p.scan(), nil
	})
	return v.(SessionsResponse)
}

func (p *Poller) scan() SessionsResponse {
	var all []Session

	for _, det := range p.detectors {
		procs := det.FindProcesses()
		sessions := det.FindSessions(procs)
		pollLog.Info("family_scanned",
			slog.String("agent", det.Name()),
			slog.Int("processes", len(procs)),
			slog.Int("sessions", len(sessions)))
		all = append(all, sessions...)
	}

	SortSessions(all)

	waiting := 0
	for _, s := range all {
		if s.Status == StatusWaiting {
			waiting++
		}
	}

	return SessionsResponse{
		Sessions:     all,
		TotalCount:   len(all),
		WaitingCount: waiting,
	}
}

// SortSessions orders sessions by status tier (active, waiting, idle), then
// by most recent activity. Timestamps are fixed-width ISO-8601 strings, so
// plain string comparison gives chronological order.
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		pi, pj := StatusSortPriority(sessions[i].Status), StatusSortPriority(sessions[j].Status)
		if pi != pj {
			return pi < pj
		}
		return sessions[i].LastActivityAt > sessions[j].LastActivityAt
	})
}
