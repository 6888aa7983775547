// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Config file with live reload, PNG/JSON headless export
// 0.2.0 - Mouse orbit and wheel zoom, hover labels, fog
// 0.1.0 - Initial release: half-block particle field with auto-rotating camera
