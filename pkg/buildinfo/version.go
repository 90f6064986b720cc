// Package buildinfo reports which build of ffs is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/ffs-ui/ffs/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/ffs-ui/ffs/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/ffs-ui/ffs/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries built with plain `go install` fall back to the module version
// and VCS stamps the toolchain embeds.
package buildinfo

import "runtime/debug"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	fill(info)
}

// fill replaces unstamped variables with values from the embedded build info.
func fill(info *debug.BuildInfo) {
	if v := info.Main.Version; Version == "dev" && v != "" && v != "(devel)" {
		Version = v
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == "none":
			Commit = s.Value
		case s.Key == "vcs.time" && Date == "unknown":
			Date = s.Value
		}
	}
}

// Template is the cobra version template.
func Template() string {
	return "{{.Name}} version " + Version + "\ncommit: " + Commit + "\nbuilt: " + Date + "\n"
}

// UserAgent is sent with every resource fetch.
func UserAgent() string {
	return "ffs/" + Version
}
