// Package version holds the application version reported by the CLI and
// the HTTP API.
package version

// Version is the current Pegboard release. Overridable at build time via
// -ldflags "-X github.com/pegboard-io/pegboard/internal/version.Version=...".
var Version = "0.3.0"
