package device

import (
	"time"
)

// Source identifies the inventory system a payload came from.
type Source string

const (
	SourceIntune   Source = "intune"
	SourceJamf     Source = "jamf"
	SourceHuntress Source = "huntress"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceIntune, SourceJamf, SourceHuntress:
		return true
	}
	return false
}

// Kind is the broad device class used to pick a category.
type Kind string

const (
	KindComputer Kind = "computer"
	KindMobile   Kind = "mobile"
)

// Placeholders used when a payload omits a field.
const (
	UnknownDevice       = "Unknown Device"
	UnknownComputer     = "Unknown Computer"
	UnknownMobileDevice = "Unknown Mobile Device"
	UnknownModel        = "Unknown Model"
	UnknownManufacturer = "Unknown"
	AppleManufacturer   = "Apple"
)

// Payload is one raw, already-fetched device document.
type Payload struct {
	Source Source
	// Kind discriminates jamf computers from mobile devices. Empty means computer.
	Kind Kind
	Data map[string]any
}

// Purchase carries optional procurement details.
type Purchase struct {
	Date        *time.Time
	Cost        *float64
	OrderNumber string
}

// Empty reports whether no purchase detail is set.
func (p *Purchase) Empty() bool {
	return p == nil || (p.Date == nil && p.Cost == nil && p.OrderNumber == "")
}

// Record is the canonical device shape every source is normalized into.
type Record struct {
	SerialNumber     string
	DisplayName      string
	ModelName        string
	ManufacturerName string
	Kind             Kind
	OSName           string
	OSVersion        string
	OwnerType        string
	EnrolledAt       *time.Time
	LastSeenAt       *time.Time
	AssignedEmail    string
	AssignedUsername string
	LocationName     string
	Capacity         string
	Purchase         *Purchase
	Source           Source
	// Warnings lists non-fatal extraction problems such as an unparsable date.
	Warnings []string
}

// HasAssignee reports whether the record names a user.
func (r Record) HasAssignee() bool {
	return r.AssignedEmail != "" || r.AssignedUsername != ""
}
