package device

import (
	"asset-sync/core/utils"
)

// Agent is a security agent as reported by huntress. Values keep their decoded JSON
// type so the enrichment encoder can tell booleans, numbers and nested values apart.
type Agent struct {
	ID                 any
	Serial             string
	DeviceName         any
	Hostname           any
	OSName             any
	OSVersion          any
	OSArchitecture     any
	IPAddresses        []any
	MACAddresses       []any
	LastSeenAt         any
	IsOnline           any
	IsDecommissioned   any
	InstallationStatus any
}

// HasID reports whether the agent carries a usable identifier.
func (a Agent) HasID() bool {
	return a.AgentID() != ""
}

// AgentID returns the identifier as a string, "" when absent.
func (a Agent) AgentID() string {
	switch v := a.ID.(type) {
	case nil:
		return ""
	case bool:
		return ""
	default:
		s := utils.ToString(v)
		if s == "0" {
			return ""
		}
		return s
	}
}

// Incident is one security incident raised for an agent.
type Incident struct {
	ID               any
	AgentID          any
	Type             any
	Status           any
	Severity         any
	Title            any
	Summary          any
	Description      any
	DetectionMethod  any
	Evidence         any
	Recommendation   any
	RemediationSteps any
	IsFalsePositive  any
	AssignedTo       any
	DetectedAt       any
	ResolvedAt       any
	ClosedAt         any
	CreatedAt        any
	UpdatedAt        any
}

// Remediation is one remediation action raised for an agent.
type Remediation struct {
	ID          any
	AgentID     any
	IncidentID  any
	Status      any
	ActionType  any
	Type        any
	RequestedAt any
	CompletedAt any
	RequestedBy any
	ExecutedBy  any
	Notes       any
	Evidence    any
	CreatedAt   any
	UpdatedAt   any
}

// NormalizeAgent maps a raw agent document.
func NormalizeAgent(d map[string]any) Agent {
	return Agent{
		ID:                 utils.Dig(d, "id"),
		Serial:             utils.DigString(d, "serial_number"),
		DeviceName:         utils.Dig(d, "device_name"),
		Hostname:           utils.Dig(d, "hostname"),
		OSName:             utils.Dig(d, "os.name"),
		OSVersion:          utils.Dig(d, "os.version"),
		OSArchitecture:     utils.Dig(d, "os.architecture"),
		IPAddresses:        list(utils.Dig(d, "ip_addresses")),
		MACAddresses:       list(utils.Dig(d, "mac_addresses")),
		LastSeenAt:         utils.Dig(d, "last_seen_at"),
		IsOnline:           utils.Dig(d, "is_online"),
		IsDecommissioned:   utils.Dig(d, "is_decommissioned"),
		InstallationStatus: utils.Dig(d, "installation_status"),
	}
}

// NormalizeIncident maps a raw incident document.
func NormalizeIncident(d map[string]any) Incident {
	return Incident{
		ID:               utils.Dig(d, "id"),
		AgentID:          utils.Dig(d, "agent_id"),
		Type:             utils.Dig(d, "type"),
		Status:           utils.Dig(d, "status"),
		Severity:         utils.Dig(d, "severity"),
		Title:            utils.Dig(d, "title"),
		Summary:          utils.Dig(d, "summary"),
		Description:      utils.Dig(d, "description"),
		DetectionMethod:  utils.Dig(d, "detection_method"),
		Evidence:         utils.Dig(d, "evidence"),
		Recommendation:   utils.Dig(d, "recommendation"),
		RemediationSteps: utils.Dig(d, "remediation_steps"),
		IsFalsePositive:  utils.Dig(d, "is_false_positive"),
		AssignedTo:       coalesce(utils.Dig(d, "assigned_to.name"), utils.Dig(d, "assigned_to.id")),
		DetectedAt:       utils.Dig(d, "detected_at"),
		ResolvedAt:       utils.Dig(d, "resolved_at"),
		ClosedAt:         utils.Dig(d, "closed_at"),
		CreatedAt:        utils.Dig(d, "created_at"),
		UpdatedAt:        utils.Dig(d, "updated_at"),
	}
}

// NormalizeRemediation maps a raw remediation document.
func NormalizeRemediation(d map[string]any) Remediation {
	actionType, kind := utils.Dig(d, "action_type"), utils.Dig(d, "type")
	return Remediation{
		ID:          utils.Dig(d, "id"),
		AgentID:     utils.Dig(d, "agent_id"),
		IncidentID:  utils.Dig(d, "incident_id"),
		Status:      utils.Dig(d, "status"),
		ActionType:  coalesce(actionType, kind),
		Type:        coalesce(kind, actionType),
		RequestedAt: utils.Dig(d, "requested_at"),
		CompletedAt: utils.Dig(d, "completed_at"),
		RequestedBy: coalesce(utils.Dig(d, "requested_by.name"), utils.Dig(d, "requested_by.id")),
		ExecutedBy:  coalesce(utils.Dig(d, "executed_by.name"), utils.Dig(d, "executed_by.id")),
		Notes:       utils.Dig(d, "notes"),
		Evidence:    utils.Dig(d, "evidence"),
		CreatedAt:   utils.Dig(d, "created_at"),
		UpdatedAt:   utils.Dig(d, "updated_at"),
	}
}

func list(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	case nil:
		return nil
	default:
		return []any{l}
	}
}

func coalesce(vals ...any) any {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
