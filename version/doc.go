// Package version reports build information for the procexec binary.
package version
