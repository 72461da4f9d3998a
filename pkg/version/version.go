package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Name is the program name used in version strings and the User-Agent header.
const Name = "confclient"

// Set by -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

// BuildInfo contains detailed version information
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
	Platform  string
}

func Get() BuildInfo {
	return BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns e.g. "confclient version 1.2.3 (abc) built on 2025-01-01 go1.24 linux/amd64".
func (b BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s version %s", Name, b.Version)
	if b.GitCommit != "" {
		fmt.Fprintf(&sb, " (%s)", b.GitCommit)
	}
	if b.BuildDate != "" {
		fmt.Fprintf(&sb, " built on %s", b.BuildDate)
	}
	fmt.Fprintf(&sb, " %s %s", b.GoVersion, b.Platform)
	return sb.String()
}

// UserAgent is sent on every API request.
func (b BuildInfo) UserAgent() string {
	return fmt.Sprintf("%s/%s (%s)", Name, b.Version, b.Platform)
}
