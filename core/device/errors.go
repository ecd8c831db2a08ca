package device

import "errors"

var (
	// ErrMissingSerial marks a record that cannot be reconciled. It is a skip, not a failure.
	ErrMissingSerial = errors.New("device has no serial number")
	// ErrNotAssetSource is returned when an enrichment-only source is normalized as an asset.
	ErrNotAssetSource = errors.New("source does not produce asset records")
	// ErrUnknownSource is returned for an unrecognised source tag.
	ErrUnknownSource = errors.New("unknown device source")
)

// IsSkip reports whether err means the device should be counted as skipped.
func IsSkip(err error) bool {
	return errors.Is(err, ErrMissingSerial)
}
