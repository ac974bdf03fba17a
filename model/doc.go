// Package model provides the in-memory payload data model: entries, feeds,
// properties, links, operations and error payloads, independent of any wire
// encoding.
//
// This package is imported by both the session core and the concrete format
// packages to avoid circular dependencies while providing one payload
// representation.
package model
