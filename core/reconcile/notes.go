package reconcile

import (
	"strings"
	"time"

	"asset-sync/core/device"
)

// Notes renders the human readable "synced from" summary stored on the asset.
func Notes(rec device.Record) string {
	var b strings.Builder

	switch rec.Source {
	case device.SourceJamf:
		b.WriteString("Synced from JAMF Pro\n")
		if rec.Kind == device.KindMobile {
			b.WriteString("Device Type: Mobile Device\n")
		} else {
			b.WriteString("Device Type: Computer\n")
		}
		b.WriteString("OS Version: " + rec.OSVersion + "\n")
		line(&b, "Capacity", rec.Capacity)
		line(&b, "User Email", rec.AssignedEmail)
		line(&b, "Username", rec.AssignedUsername)
		line(&b, "JAMF Location", rec.LocationName)

	default:
		b.WriteString("Synced from Microsoft Intune\n")
		b.WriteString("OS: " + strings.TrimSpace(rec.OSName+" "+rec.OSVersion) + "\n")
		b.WriteString("Owner Type: " + rec.OwnerType + "\n")
		b.WriteString("Enrolled: " + stamp(rec.EnrolledAt) + "\n")
		b.WriteString("Last Sync: " + stamp(rec.LastSeenAt))
		if rec.AssignedEmail != "" {
			b.WriteString("\nUser: " + rec.AssignedEmail)
		}
	}

	return b.String()
}

func line(b *strings.Builder, label, value string) {
	if value != "" {
		b.WriteString(label + ": " + value + "\n")
	}
}

func stamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
