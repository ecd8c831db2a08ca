// Package server holds the HTTP server configuration.
//
// The start command owns the Fiber app; this package only defines the listen port,
// the API key guarding every route except /health, and request timeouts.
package server
