package audiotag

import "runtime"

// Build metadata, set with -ldflags at build time:
//
//	go build -ldflags="-X github.com/simonhull/audiotag.Version=v0.2.0 \
//	  -X github.com/simonhull/audiotag.Commit=$(git rev-parse HEAD) \
//	  -X github.com/simonhull/audiotag.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// VersionInfo contains detailed version information.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
}

// GetVersionInfo returns the build metadata and the Go version the
// binary was built with.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}
