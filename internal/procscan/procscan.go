// Package procscan enumerates OS processes for agent discovery.
//
// CPU percentages are delta-based: a single sample reads 0, so each Scanner
// keeps its process handles alive across polls and reports usage since the
// previous snapshot. Callers should hold one Scanner for the lifetime of the
// monitor and snapshot it once per poll.
package procscan

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/ozansz/agent-sessions/internal/logging"
)

var procLog = logging.ForComponent(logging.CompProc)

// ProcessInfo is one live OS process as seen by a snapshot.
type ProcessInfo struct {
	PID         int32
	Name        string
	Args        []string
	CPUPercent  float64
	Cwd         string // best effort, "" when unresolvable
	MemoryBytes uint64
}

// Filter decides from cheap identity fields whether a process is interesting
// enough to resolve its working directory and memory usage.
type Filter func(name string, args []string) bool

// Scanner snapshots the system process table. The retained handle map is the
// only mutable state shared across polls and is guarded for callers that
// overlap polls.
type Scanner struct {
	mu      sync.Mutex
	handles map[int32]*process.Process
}

// NewScanner returns a Scanner with an empty process table. The first
// snapshot primes CPU sampling and reports near-zero usage.
func NewScanner() *Scanner {
	return &Scanner{handles: make(map[int32]*process.Process)}
}

// Snapshot returns the processes accepted by filter, with CPU usage measured
// since the previous snapshot. Processes that disappear mid-scan are skipped.
func (s *Scanner) Snapshot(filter Filter) []ProcessInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	pids, err := process.Pids()
	if err != nil {
		procLog.Debug("process_list_failed", slog.String("error", err.Error()))
		return nil
	}

	alive := make(map[int32]bool, len(pids))
	var infos []ProcessInfo

	for _, pid := range pids {
		alive[pid] = true

		p, ok := s.handles[pid]
		if !ok {
			p, err = process.NewProcess(pid)
			if err != nil {
				continue
			}
			s.handles[pid] = p
		}

		name, err := p.Name()
		if err != nil {
			continue
		}
		args, _ := p.CmdlineSlice()

		if filter != nil && !filter(name, args) {
			continue
		}

		// interval 0 measures against the previous Percent call on this
		// handle, which is what keeps the table long-lived.
		cpu, _ := p.Percent(0)

		cwd, _ := p.Cwd()
		var mem uint64
		if mi, err := p.MemoryInfo(); err == nil && mi != nil {
			mem = mi.RSS
		}

		infos = append(infos, ProcessInfo{
			PID:         pid,
			Name:        name,
			Args:        args,
			CPUPercent:  cpu,
			Cwd:         cwd,
			MemoryBytes: mem,
		})
	}

	// Drop handles for exited processes so the table doesn't grow forever.
	for pid := range s.handles {
		if !alive[pid] {
			delete(s.handles, pid)
		}
	}

	return infos
}

// BaseName returns the final path component of an argv entry, lowercased.
func BaseName(arg string) string {
	arg = strings.ToLower(arg)
	if i := strings.LastIndex(arg, "/"); i >= 0 {
		return arg[i+1:]
	}
	return arg
}
