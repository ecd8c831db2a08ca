// Package device is the only place raw inventory payloads are interpreted.
//
// Normalize turns an intune or jamf document into a Record. Huntress documents are
// not assets; NormalizeAgent, NormalizeIncident and NormalizeRemediation map them
// into the records the enrichment merger consumes.
//
// All functions are pure. A payload without a serial number is reported with
// ErrMissingSerial, which callers count as a skip rather than a failure. Unparsable
// dates and prices are dropped and described in Record.Warnings.
package device
