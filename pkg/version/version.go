// Package version holds build metadata injected with -ldflags, e.g.
//
//	-X github.com/Sumatoshi-tech/catalog/pkg/version.Version=v1.2.0
package version

import (
	"fmt"
	"runtime/debug"
)

// Build metadata. Overridden at link time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns Version, falling back to the module version recorded by
// "go install" when no ldflags were given.
func Info() string {
	if Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return Version
}

// String renders the full version line.
func String() string {
	return fmt.Sprintf("catalog %s (commit: %s, built: %s)", Info(), Commit, Date)
}
