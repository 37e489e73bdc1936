// Package version holds the xpuctl build information, set through ldflags at build time.
package version

import (
	"fmt"
	"runtime"
	rdebug "runtime/debug"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GitCommit  string
	GitBranch  string
	GitSummary string
	BuildDate  string
	AppVersion string
)

// trackedModules are the modules xpuctl talks to BMCs and drives discovery with,
// their versions are reported next to the xpuctl version.
var trackedModules = []string{
	"github.com/hashicorp/go-retryablehttp",
	"github.com/filanov/stateswitch",
	"github.com/bmc-toolbox/common",
}

// Build is the xpuctl build information.
type Build struct {
	GitCommit  string `json:"git_commit"`
	GitBranch  string `json:"git_branch"`
	GitSummary string `json:"git_summary"`
	BuildDate  string `json:"build_date"`
	AppVersion string `json:"app_version"`
	GoVersion  string `json:"go_version"`

	// Modules maps the tracked module paths to their version, modules missing from the build are not listed.
	Modules map[string]string `json:"modules"`
}

// Current returns the build information of the running binary.
func Current() *Build {
	b := &Build{
		GitCommit:  GitCommit,
		GitBranch:  GitBranch,
		GitSummary: GitSummary,
		BuildDate:  BuildDate,
		AppVersion: AppVersion,
		GoVersion:  runtime.Version(),
		Modules:    map[string]string{},
	}

	if info, ok := rdebug.ReadBuildInfo(); ok {
		b.Modules = moduleVersions(info.Deps)
	}

	return b
}

func moduleVersions(deps []*rdebug.Module) map[string]string {
	versions := map[string]string{}

	for _, d := range deps {
		for _, path := range trackedModules {
			if d.Path == path {
				versions[path] = d.Version
			}
		}
	}

	return versions
}

// String returns the build information one attribute per line.
func (b *Build) String() string {
	var s strings.Builder

	fmt.Fprintf(&s, "version: %s\ncommit: %s\nbranch: %s\ngit summary: %s\nbuild date: %s\nGo version: %s\n",
		b.AppVersion, b.GitCommit, b.GitBranch, b.GitSummary, b.BuildDate, b.GoVersion)

	for _, path := range trackedModules {
		if v, exists := b.Modules[path]; exists {
			fmt.Fprintf(&s, "%s: %s\n", path, v)
		}
	}

	return s.String()
}

// ExportBuildInfoMetric registers the xpuctl_build_info gauge on the default registry,
// it panics when invoked more than once.
func ExportBuildInfoMetric() {
	b := Current()

	promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "xpuctl_build_info",
			Help: "Constant 1, labeled with the version, commit, branch, build date and Go version of the running xpuctl.",
		},
		[]string{"version", "commit", "branch", "builddate", "goversion"},
	).WithLabelValues(b.AppVersion, b.GitCommit, b.GitBranch, b.BuildDate, b.GoVersion).Set(1)
}
