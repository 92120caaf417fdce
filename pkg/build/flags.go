// SPDX-License-Identifier: MIT
//
// Package build carries the metadata stamped into the binary at link time:
// application name, build timestamp, commit and version. The CLI shows it in
// `--version` and the TUI title bar.
//
//	go build -ldflags "-X fftplot/pkg/build.buildName=fftplot \
//	  -X fftplot/pkg/build.buildVersion=0.3.0 ..."
package build

import "fmt"

// Default application identity used when the binary was built without ldflags.
const (
	DefaultName        = "fftplot"
	DefaultDescription = "Real-time audio spectrum analyzer"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Populated by -ldflags. Development builds fall back to the defaults.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        DefaultName,
		Description: DefaultDescription,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize validates the ldflags variables and copies them into the build
// information. It returns an error naming the first missing flag; in that case
// the development defaults stay in place, so callers may treat the error as a
// warning.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String formats the build information for `--version` output.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
