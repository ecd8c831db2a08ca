package reconcile

import (
	"asset-sync/core/device"
)

// Outcome is the result class of reconciling one device.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeError   Outcome = "error"
)

// Result reports what happened to one device.
type Result struct {
	// Outcome is created, updated, skipped or error.
	Outcome Outcome
	// AssetID is the canonical asset id, 0 unless created or updated.
	AssetID uint
	// Serial echoes the device serial.
	Serial string
	// Restored is set when a soft-deleted asset was brought back.
	Restored bool
	// Changed is false for an update whose columns already matched.
	Changed bool
	// Err carries the reason for OutcomeError and OutcomeSkipped.
	Err error
}

// Overrides are the per-source configured identities and toggles.
// Zero ids mean "not configured".
type Overrides struct {
	CategoryComputer uint
	CategoryMobile   uint
	Status           uint
	Location         uint
	Model            uint
	Manufacturer     uint
	AutoAssignUsers  bool
}

// CategoryID returns the configured category for a device kind.
func (o Overrides) CategoryID(kind device.Kind) uint {
	if kind == device.KindMobile {
		return o.CategoryMobile
	}
	return o.CategoryComputer
}

// ReadyToDeploy is the preferred status label name.
const ReadyToDeploy = "Ready to Deploy"

// FallbackStatusID is used when no status label can be resolved.
const FallbackStatusID uint = 1

// CategoryName is the category created for a source and kind when no override applies.
func CategoryName(source device.Source, kind device.Kind) string {
	switch source {
	case device.SourceJamf:
		if kind == device.KindMobile {
			return "JAMF Mobile Devices"
		}
		return "JAMF Computers"
	case device.SourceIntune:
		return "Intune Devices"
	}
	return "Synced Devices"
}
