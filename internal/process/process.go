// Package process enumerates candidate processes for console attachment.
//
// This is a collaborator of the session core, not part of it: the core
// trusts Attach(pid) requests as-is and surfaces capability rejection as
// an event, so the Attachable flag here is advisory display data only.
package process

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Info describes one candidate process.
type Info struct {
	PID        uint32    `json:"pid"`
	Name       string    `json:"name"`
	Username   string    `json:"username"`
	StartedAt  time.Time `json:"started_at"`
	Attachable bool      `json:"attachable"`
}

// Lister enumerates processes, optionally restricted by a name filter.
type Lister struct {
	nameFilter  string
	currentPID  uint32
	currentUser string
}

// NewLister creates a lister. nameFilter, when non-empty, keeps only
// processes whose name contains it (case-insensitive).
func NewLister(nameFilter string) *Lister {
	current := ""
	if u, err := user.Current(); err == nil {
		current = u.Username
	}
	return &Lister{
		nameFilter:  strings.ToLower(nameFilter),
		currentPID:  uint32(os.Getpid()),
		currentUser: current,
	}
}

// List returns candidate processes, skipping the service's own process.
func (l *Lister) List(ctx context.Context) ([]Info, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	infos := []Info{}
	for _, p := range procs {
		pid := uint32(p.Pid)
		if pid == l.currentPID {
			continue
		}

		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Process may have exited mid-scan or be unreadable; skip.
			continue
		}
		if l.nameFilter != "" && !strings.Contains(strings.ToLower(name), l.nameFilter) {
			continue
		}

		username, _ := p.UsernameWithContext(ctx)

		var started time.Time
		if ms, err := p.CreateTimeWithContext(ctx); err == nil {
			started = time.UnixMilli(ms)
		}

		infos = append(infos, Info{
			PID:        pid,
			Name:       name,
			Username:   username,
			StartedAt:  started,
			Attachable: l.attachable(username),
		})
	}
	return infos, nil
}

// attachable is a same-user heuristic: a console bind generally requires
// matching privilege with the target. The session core never consults
// this; it is display data for operators.
func (l *Lister) attachable(username string) bool {
	if l.currentUser == "" || username == "" {
		return false
	}
	return username == l.currentUser
}
