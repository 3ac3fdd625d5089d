// Package version provides the build version of ptcgo-assets.
// It can be set at build time using ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/PTCGO-Assets/internal/version.Version=v1.2.3 -X github.com/ramonehamilton/PTCGO-Assets/internal/version.Commit=abc1234"
package version

import "fmt"

var (
	// Version defaults to "dev" for local builds.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "unknown"
)

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}

// String returns the version line printed by the CLI.
func String() string {
	return fmt.Sprintf("ptcgo-assets %s (%s)", Version, Commit)
}
