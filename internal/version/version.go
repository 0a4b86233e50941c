// Package version holds build version information.
package version

// Version is the application version, overridable at build time with
// -ldflags "-X github.com/careerforge/careerforge/internal/version.Version=v1.2.3".
var Version = "dev"
