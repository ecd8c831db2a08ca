// Package utils provides common utility functions for the asset-sync application.
// It includes helpers for coercing loosely typed vendor JSON values and walking
// nested payload sections by dotted path.
package utils
