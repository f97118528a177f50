// Package version carries the build identity stamped into the binary.
package version

// Overridden at build time:
//
//	go build -ldflags "-X github.com/audioai/aircheck/internal/version.Version=1.2.0 \
//	  -X github.com/audioai/aircheck/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "1.0.0"
	Commit  = "dev"
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func Load() Info {
	return Info{Version: Version, Commit: Commit}
}

// String renders the identity for startup logs, e.g. "1.0.0 (dev)".
func (i Info) String() string {
	if i.Commit == "" {
		return i.Version
	}
	return i.Version + " (" + i.Commit + ")"
}
