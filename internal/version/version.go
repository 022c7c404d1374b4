package version

import "fmt"

// Set at build time with -ldflags "-X s3site/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

func Detailed() string {
	return fmt.Sprintf("s3site %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
