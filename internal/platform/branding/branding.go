// Package branding holds product naming shared across binaries so the
// public name is defined in exactly one place.
package branding

// AppName is the public product name used in server identifiers and
// user-facing strings.
const AppName = "OpenRechev"
