package enrich

// DefaultPrefix is prepended to every slot to form its asset column.
const DefaultPrefix = "_snipeit_"

// Slots is the fixed set of enrichment fields written onto an asset.
var Slots = []string{
	"huntress_agent_id",
	"huntress_device_name",
	"huntress_hostname",
	"huntress_os_name",
	"huntress_os_version",
	"huntress_os_architecture",
	"huntress_ip_addresses",
	"huntress_mac_addresses",
	"huntress_last_seen_at",
	"huntress_is_online",
	"huntress_is_decommissioned",
	"huntress_installation_status",

	"huntress_incident_id",
	"huntress_incident_agent_id",
	"huntress_incident_type",
	"huntress_incident_status",
	"huntress_incident_severity",
	"huntress_incident_detected_at",
	"huntress_incident_resolved_at",
	"huntress_incident_closed_at",
	"huntress_incident_title",
	"huntress_incident_summary",
	"huntress_incident_description",
	"huntress_incident_detection_method",
	"huntress_incident_evidence",
	"huntress_incident_recommendation",
	"huntress_incident_remediation_steps",
	"huntress_incident_is_false_positive",
	"huntress_incident_assigned_to",
	"huntress_incident_created_at",
	"huntress_incident_updated_at",

	"huntress_remediation_id",
	"huntress_remediation_agent_id",
	"huntress_remediation_incident_id",
	"huntress_remediation_status",
	"huntress_remediation_action_type",
	"huntress_remediation_type",
	"huntress_remediation_requested_at",
	"huntress_remediation_completed_at",
	"huntress_remediation_requested_by",
	"huntress_remediation_executed_by",
	"huntress_remediation_notes",
	"huntress_remediation_evidence",
	"huntress_remediation_created_at",
	"huntress_remediation_updated_at",
}

// Column returns the asset column backing a slot.
func Column(prefix, slot string) string {
	return prefix + slot
}

// Columns returns every slot column for prefix, in slot order.
func Columns(prefix string) []string {
	cols := make([]string, len(Slots))
	for i, s := range Slots {
		cols[i] = Column(prefix, s)
	}
	return cols
}
