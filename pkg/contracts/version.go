package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the release of stockstats; APIVersion prefixes the HTTP routes
const (
	Version    = "1.0.0"
	APIVersion = "v1"
)

const unknown = "unknown"

// Set with -ldflags "-X stockstats/pkg/contracts.GitCommit=..." at release
// time. When left unknown, the VCS stamp of the Go toolchain is used.
var (
	BuildTime = unknown
	GitCommit = unknown
)

// VersionInfo is the build description served by /api/v1/version
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	APIVersion   string `json:"api_version"`
}

func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		APIVersion:   APIVersion,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.GitCommit == unknown:
				info.GitCommit = s.Value
			case s.Key == "vcs.time" && info.BuildTime == unknown:
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// GetFullVersionString renders the one-line output of `stockstats version`
func GetFullVersionString(name string) string {
	v := GetVersionInfo()
	return fmt.Sprintf("%s %s (built: %s, commit: %s, go: %s, os: %s/%s)",
		name, v.Version, v.BuildTime, v.GitCommit, v.GoVersion, v.OS, v.Architecture)
}
