package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/kbukum/procexec/version.Version=1.2.0"
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	IsDirty   bool   `json:"is_dirty"`
}

// IsRelease reports whether the binary was built from a tagged, clean tree.
func (i Info) IsRelease() bool {
	return i.Version != "dev" && !i.IsDirty && !strings.Contains(i.Version, "dirty")
}

// Get returns the ldflags values, filling gaps from the module build info.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.IsDirty = s.Value == "true"
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// String formats the version for --version output, e.g.
// "procexec 1.2.0 (abc1234, built 2026-01-15T10:30:00Z)".
func (i Info) String() string {
	var details []string
	if i.GitCommit != "" {
		commit := i.GitCommit
		if i.IsDirty {
			commit += "-dirty"
		}
		details = append(details, commit)
	}
	if i.BuildTime != "" {
		details = append(details, "built "+i.BuildTime)
	}
	if len(details) == 0 {
		return fmt.Sprintf("procexec %s", i.Version)
	}
	return fmt.Sprintf("procexec %s (%s)", i.Version, strings.Join(details, ", "))
}
