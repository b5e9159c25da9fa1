// Package version carries build metadata injected with -ldflags -X.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   = "dev"  // ex: v0.1.0
	Commit    = "none" // ex: abcd123
	BuildDate = ""     // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version()
)

func init() {
	if BuildDate != "" {
		return
	}
	BuildDate = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.time":
			BuildDate = s.Value
		case "vcs.revision":
			if Commit == "none" && len(s.Value) >= 7 {
				Commit = s.Value[:7]
			}
		}
	}
}

// String renders the metadata on one line for banners and --version.
func String() string {
	return fmt.Sprintf("%s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
