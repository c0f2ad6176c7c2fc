// Package version holds the build version string.
package version

// Version is the current version of vigil. Overridden at build time for
// tagged releases (via -ldflags -X).
var Version = "0.1.0-dev"
