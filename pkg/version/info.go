// Package version reports the build of the hela binary. Values are injected with -ldflags -X at
// release time; a plain `go build` falls back to the VCS stamp the toolchain embeds.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	Version    string
	CommitHash string
	BuildTime  string
	Prerelease string
	Snapshot   string
	OS         string
	Arch       string
	Branch     string
)

// Info is one rendering of the build metadata.
type Info struct {
	Version    string
	CommitHash string
	Prerelease string
	Snapshot   bool
	OS         string
	Arch       string
	Branch     string
}

// Current collects the injected build metadata, filling the commit from the embedded build info
// when it was not injected.
func Current() Info {
	info := Info{
		Version:    Version,
		CommitHash: CommitHash,
		Prerelease: Prerelease,
		Snapshot:   Snapshot == "true",
		OS:         OS,
		Arch:       Arch,
		Branch:     Branch,
	}
	if info.CommitHash == "" {
		info.CommitHash = vcsRevision()
	}
	return info
}

// GetVersion returns the version string shown by `hela version` and sent in the User-Agent.
func GetVersion() string {
	return Current().String()
}

// UserAgent is the value sent in the User-Agent header of every API call.
func UserAgent() string {
	return "hela/" + GetVersion()
}

// String renders version(commit)-prerelease[branch]/os-arch, omitting the parts that are unset.
func (i Info) String() string {
	var b strings.Builder
	if i.Version == "" {
		b.WriteString("dev")
	} else {
		b.WriteString(i.Version)
	}
	if i.CommitHash != "" {
		fmt.Fprintf(&b, "(%s)", i.CommitHash)
	}
	switch {
	case i.Prerelease != "":
		b.WriteString("-" + i.Prerelease)
	case i.Snapshot:
		b.WriteString("-snapshot")
	}
	if i.Branch != "" && i.Branch != "main" && i.Branch != "HEAD" {
		fmt.Fprintf(&b, "[%s]", i.Branch)
	}
	switch {
	case i.OS != "" && i.Arch != "":
		fmt.Fprintf(&b, "/%s-%s", i.OS, i.Arch)
	case i.OS != "":
		b.WriteString("/" + i.OS)
	}
	return b.String()
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
