// Package version carries build metadata injected at link time, e.g.
//
//	go build -ldflags "-X github.com/planlift/planlift/internal/version.Version=v0.3.0"
package version

// Set via -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, commit and build date.
func Info() (version, commit, date string) {
	return Version, GitCommit, BuildDate
}
