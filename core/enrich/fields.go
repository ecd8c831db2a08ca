package enrich

import (
	"context"
	"fmt"
	"strings"

	"asset-sync/core/database"
	"asset-sync/core/device"
	"asset-sync/core/registry"
	"asset-sync/core/utils"

	"gorm.io/gorm"
)

// Fields builds the full slot map for an agent and its recent history.
// Every slot is present; a nil agent yields an all-nil map.
func (m *Merger) Fields(agent *device.Agent, incidents []device.Incident, remediations []device.Remediation) map[string]*string {
	return BuildFields(m.prefix, agent, incidents, remediations)
}

// Blank returns the all-nil slot map used to clear an asset.
func Blank(prefix string) map[string]*string {
	fields := make(map[string]*string, len(Slots))
	for _, s := range Slots {
		fields[Column(prefix, s)] = nil
	}
	return fields
}

// BuildFields is Fields without a Merger.
func BuildFields(prefix string, agent *device.Agent, incidents []device.Incident, remediations []device.Remediation) map[string]*string {
	f := Blank(prefix)
	set := func(slot string, v *string) {
		f[Column(prefix, slot)] = v
	}

	if agent != nil {
		set("huntress_agent_id", EncodeValue(agent.ID))
		set("huntress_device_name", EncodeValue(agent.DeviceName))
		set("huntress_hostname", EncodeValue(agent.Hostname))
		set("huntress_os_name", EncodeValue(agent.OSName))
		set("huntress_os_version", EncodeValue(agent.OSVersion))
		set("huntress_os_architecture", EncodeValue(agent.OSArchitecture))
		set("huntress_ip_addresses", FormatSimpleList(agent.IPAddresses))
		set("huntress_mac_addresses", FormatSimpleList(agent.MACAddresses))
		set("huntress_last_seen_at", EncodeValue(agent.LastSeenAt))
		set("huntress_is_online", FormatBoolean(agent.IsOnline))
		set("huntress_is_decommissioned", FormatBoolean(agent.IsDecommissioned))
		set("huntress_installation_status", EncodeValue(agent.InstallationStatus))
	}

	incident := func(slot string, fn func(device.Incident) any) {
		set(slot, FormatEnumeratedList(incidents, fn))
	}
	incident("huntress_incident_id", func(i device.Incident) any { return i.ID })
	incident("huntress_incident_agent_id", func(i device.Incident) any { return i.AgentID })
	incident("huntress_incident_type", func(i device.Incident) any { return i.Type })
	incident("huntress_incident_status", func(i device.Incident) any { return i.Status })
	incident("huntress_incident_severity", func(i device.Incident) any { return i.Severity })
	incident("huntress_incident_detected_at", func(i device.Incident) any { return i.DetectedAt })
	incident("huntress_incident_resolved_at", func(i device.Incident) any { return i.ResolvedAt })
	incident("huntress_incident_closed_at", func(i device.Incident) any { return i.ClosedAt })
	incident("huntress_incident_title", func(i device.Incident) any { return i.Title })
	incident("huntress_incident_summary", func(i device.Incident) any { return i.Summary })
	incident("huntress_incident_description", func(i device.Incident) any { return i.Description })
	incident("huntress_incident_detection_method", func(i device.Incident) any { return i.DetectionMethod })
	incident("huntress_incident_evidence", func(i device.Incident) any { return deref(EncodeValue(i.Evidence)) })
	incident("huntress_incident_recommendation", func(i device.Incident) any { return i.Recommendation })
	incident("huntress_incident_remediation_steps", func(i device.Incident) any { return i.RemediationSteps })
	incident("huntress_incident_is_false_positive", func(i device.Incident) any { return deref(FormatBoolean(i.IsFalsePositive)) })
	incident("huntress_incident_assigned_to", func(i device.Incident) any { return i.AssignedTo })
	incident("huntress_incident_created_at", func(i device.Incident) any { return i.CreatedAt })
	incident("huntress_incident_updated_at", func(i device.Incident) any { return i.UpdatedAt })

	remediation := func(slot string, fn func(device.Remediation) any) {
		set(slot, FormatEnumeratedList(remediations, fn))
	}
	remediation("huntress_remediation_id", func(r device.Remediation) any { return r.ID })
	remediation("huntress_remediation_agent_id", func(r device.Remediation) any { return r.AgentID })
	remediation("huntress_remediation_incident_id", func(r device.Remediation) any { return r.IncidentID })
	remediation("huntress_remediation_status", func(r device.Remediation) any { return r.Status })
	remediation("huntress_remediation_action_type", func(r device.Remediation) any { return r.ActionType })
	remediation("huntress_remediation_type", func(r device.Remediation) any { return r.Type })
	remediation("huntress_remediation_requested_at", func(r device.Remediation) any { return r.RequestedAt })
	remediation("huntress_remediation_completed_at", func(r device.Remediation) any { return r.CompletedAt })
	remediation("huntress_remediation_requested_by", func(r device.Remediation) any { return r.RequestedBy })
	remediation("huntress_remediation_executed_by", func(r device.Remediation) any { return r.ExecutedBy })
	remediation("huntress_remediation_notes", func(r device.Remediation) any { return r.Notes })
	remediation("huntress_remediation_evidence", func(r device.Remediation) any { return deref(EncodeValue(r.Evidence)) })
	remediation("huntress_remediation_created_at", func(r device.Remediation) any { return r.CreatedAt })
	remediation("huntress_remediation_updated_at", func(r device.Remediation) any { return r.UpdatedAt })

	return f
}

// deref turns a nil encoding back into a nil value so the item is skipped.
func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// Stored returns the non-empty enrichment values currently held by an asset,
// keyed by column. Unprovisioned columns are ignored.
func Stored(ctx context.Context, db *gorm.DB, prefix string, assetID uint) (map[string]string, error) {
	present, err := database.ColumnSet(db.WithContext(ctx), registry.AssetsTable)
	if err != nil {
		return nil, fmt.Errorf("inspect asset columns: %w", err)
	}

	var cols []string
	for _, col := range Columns(prefix) {
		if present[strings.ToLower(col)] {
			cols = append(cols, col)
		}
	}
	values := map[string]string{}
	if len(cols) == 0 {
		return values, nil
	}

	current := map[string]any{}
	err = db.WithContext(ctx).Table(registry.AssetsTable).
		Select(cols).Where("id = ?", assetID).Take(&current).Error
	if err != nil {
		return nil, fmt.Errorf("read enrichment columns of asset %d: %w", assetID, err)
	}
	for col, v := range current {
		if s := utils.ToString(v); s != "" {
			values[col] = s
		}
	}
	return values, nil
}
