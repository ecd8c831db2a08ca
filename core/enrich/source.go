package enrich

import (
	"context"
	"sort"
	"strings"
	"time"

	"asset-sync/core/device"
	"asset-sync/core/utils"

	"github.com/araddon/dateparse"
)

// Snapshot is an in-memory AgentSource built from one exported document.
// History is returned most recent first.
type Snapshot struct {
	agents       map[string]device.Agent
	incidents    map[string][]device.Incident
	remediations map[string][]device.Remediation
}

// NewSnapshot indexes raw agents, incidents and remediations.
// When several agents report the same serial the most recently seen one wins.
func NewSnapshot(agents, incidents, remediations []map[string]any) *Snapshot {
	s := &Snapshot{
		agents:       make(map[string]device.Agent, len(agents)),
		incidents:    make(map[string][]device.Incident),
		remediations: make(map[string][]device.Remediation),
	}

	for _, raw := range agents {
		a := device.NormalizeAgent(raw)
		key := serialKey(a.Serial)
		if key == "" {
			continue
		}
		if prev, ok := s.agents[key]; ok && !newer(a.LastSeenAt, prev.LastSeenAt) {
			continue
		}
		s.agents[key] = a
	}

	for _, raw := range incidents {
		i := device.NormalizeIncident(raw)
		id := utils.ToString(i.AgentID)
		s.incidents[id] = append(s.incidents[id], i)
	}
	for id := range s.incidents {
		list := s.incidents[id]
		sort.SliceStable(list, func(a, b int) bool {
			return newer(coalesce(list[a].DetectedAt, list[a].CreatedAt), coalesce(list[b].DetectedAt, list[b].CreatedAt))
		})
	}

	for _, raw := range remediations {
		r := device.NormalizeRemediation(raw)
		id := utils.ToString(r.AgentID)
		s.remediations[id] = append(s.remediations[id], r)
	}
	for id := range s.remediations {
		list := s.remediations[id]
		sort.SliceStable(list, func(a, b int) bool {
			return newer(coalesce(list[a].RequestedAt, list[a].CreatedAt), coalesce(list[b].RequestedAt, list[b].CreatedAt))
		})
	}

	return s
}

// Len reports the number of indexed agents.
func (s *Snapshot) Len() int {
	return len(s.agents)
}

// FindAgentBySerial returns nil when no agent reports serial.
func (s *Snapshot) FindAgentBySerial(_ context.Context, serial string) (*device.Agent, error) {
	a, ok := s.agents[serialKey(serial)]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Snapshot) Incidents(_ context.Context, agentID string, limit int) ([]device.Incident, error) {
	return head(s.incidents[agentID], limit), nil
}

func (s *Snapshot) Remediations(_ context.Context, agentID string, limit int) ([]device.Remediation, error) {
	return head(s.remediations[agentID], limit), nil
}

func head[T any](list []T, limit int) []T {
	if limit <= 0 {
		return nil
	}
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]T, len(list))
	copy(out, list)
	return out
}

func serialKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func coalesce(a, b any) any {
	if a != nil {
		return a
	}
	return b
}

// newer reports whether timestamp a is strictly after b. Unparsable values sort last.
func newer(a, b any) bool {
	ta, okA := parseTime(a)
	tb, okB := parseTime(b)
	switch {
	case okA && okB:
		return ta.After(tb)
	default:
		return okA && !okB
	}
}

func parseTime(v any) (time.Time, bool) {
	s := strings.TrimSpace(utils.ToString(v))
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
