package device

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"asset-sync/core/utils"

	"github.com/araddon/dateparse"
)

// Normalize converts a raw payload into a Record.
// A payload without a serial yields the partially filled record and ErrMissingSerial
// so callers can still log the device name.
func Normalize(p Payload) (Record, error) {
	var rec Record
	switch p.Source {
	case SourceIntune:
		rec = normalizeIntune(p.Data)
	case SourceJamf:
		rec = normalizeJamf(p.Data, jamfKind(p))
	case SourceHuntress:
		return Record{Source: p.Source}, ErrNotAssetSource
	default:
		return Record{Source: p.Source}, fmt.Errorf("%w: %q", ErrUnknownSource, p.Source)
	}

	if rec.SerialNumber == "" {
		return rec, ErrMissingSerial
	}
	return rec, nil
}

// PayloadName returns a human label for a payload, used in logs when normalization fails.
func PayloadName(p Payload) string {
	switch p.Source {
	case SourceIntune:
		return orDefault(utils.DigString(p.Data, "deviceName"), UnknownDevice)
	case SourceJamf:
		return orDefault(utils.FirstString(p.Data, "general.name", "general.display_name"), UnknownDevice)
	case SourceHuntress:
		return utils.FirstString(p.Data, "hostname", "device_name")
	}
	return ""
}

func normalizeIntune(d map[string]any) Record {
	rec := Record{
		Source:           SourceIntune,
		SerialNumber:     utils.DigString(d, "serialNumber"),
		DisplayName:      orDefault(utils.DigString(d, "deviceName"), UnknownDevice),
		ModelName:        orDefault(utils.DigString(d, "model"), UnknownModel),
		ManufacturerName: orDefault(utils.DigString(d, "manufacturer"), UnknownManufacturer),
		OSName:           utils.DigString(d, "operatingSystem"),
		OSVersion:        utils.DigString(d, "osVersion"),
		OwnerType:        utils.DigString(d, "managedDeviceOwnerType"),
		AssignedEmail:    utils.DigString(d, "userPrincipalName"),
	}
	rec.Kind = intuneKind(rec.OSName)

	rec.EnrolledAt = rec.parseTime("enrolledDateTime", utils.DigString(d, "enrolledDateTime"))
	rec.LastSeenAt = rec.parseTime("lastSyncDateTime", utils.DigString(d, "lastSyncDateTime"))
	return rec
}

func intuneKind(os string) Kind {
	switch strings.ToLower(os) {
	case "ios", "ipados", "android", "androidforwork", "androidenterprise":
		return KindMobile
	}
	if strings.HasPrefix(strings.ToLower(os), "android") {
		return KindMobile
	}
	return KindComputer
}

func jamfKind(p Payload) Kind {
	if p.Kind != "" {
		return p.Kind
	}
	switch utils.DigString(p.Data, "_device_type") {
	case "mobile", "mobile_device":
		return KindMobile
	}
	return KindComputer
}

func normalizeJamf(d map[string]any, kind Kind) Record {
	rec := Record{
		Source:           SourceJamf,
		Kind:             kind,
		SerialNumber:     utils.DigString(d, "general.serial_number"),
		ManufacturerName: AppleManufacturer,
		AssignedEmail:    utils.DigString(d, "location.email_address"),
		AssignedUsername: utils.DigString(d, "location.username"),
		LocationName:     utils.DigString(d, "location.building"),
	}

	if kind == KindMobile {
		rec.DisplayName = orDefault(utils.FirstString(d, "general.name", "general.display_name"), UnknownMobileDevice)
		rec.ModelName = orDefault(utils.FirstString(d, "general.model", "general.model_identifier"), UnknownModel)
		rec.OSVersion = utils.DigString(d, "general.os_version")
		rec.Capacity = utils.DigString(d, "general.capacity")
	} else {
		rec.DisplayName = orDefault(utils.DigString(d, "general.name"), UnknownComputer)
		rec.ModelName = orDefault(utils.FirstString(d, "hardware.model", "hardware.model_identifier"), UnknownModel)
		rec.OSVersion = utils.FirstString(d, "hardware.os_version", "general.platform")
	}

	purchase := &Purchase{OrderNumber: utils.DigString(d, "purchasing.po_number")}
	if raw := utils.FirstString(d, "purchasing.po_date", "purchasing.purchase_date"); raw != "" {
		if t := rec.parseTime("purchase date", raw); t != nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			purchase.Date = &day
		}
	}
	if raw := utils.DigString(d, "purchasing.purchase_price"); raw != "" {
		cost, err := ParseCost(raw)
		if err != nil {
			rec.warn("invalid purchase price %q", raw)
		} else if cost != 0 {
			purchase.Cost = &cost
		}
	}
	if !purchase.Empty() {
		rec.Purchase = purchase
	}
	return rec
}

// ParseCost strips currency symbols, thousands separators and whitespace before parsing.
func ParseCost(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0, fmt.Errorf("no digits in %q", raw)
	}
	return strconv.ParseFloat(cleaned, 64)
}

func (r *Record) parseTime(field, raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		r.warn("invalid %s %q", field, raw)
		return nil
	}
	t = t.UTC()
	return &t
}

func (r *Record) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
