// Package metrics exposes Prometheus counters for sync runs and the HTTP API.
//
// A private registry is used so tests can build independent instances. All recording
// methods are nil-safe, which lets commands run without metrics wiring.
package metrics
