// Package version exposes build metadata injected with -ldflags, e.g.
//
//	-X github.com/bissquit/incident-tracker/internal/version.Version=1.2.0
package version

// Build metadata. Defaults apply to local builds.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the build metadata served by GET /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Get returns the current build metadata.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
	}
}
