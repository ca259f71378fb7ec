// Package version holds relicscan build information.
package version

// Set at build time with
//
//	-ldflags "-X relicscan/internal/version.Version=... -X relicscan/internal/version.GitCommit=..."
var (
	// Version is the semantic version
	Version = "0.3.0"

	// BuildTime is the UTC time when the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)
