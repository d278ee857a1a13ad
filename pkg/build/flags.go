// SPDX-License-Identifier: MIT

// Package build carries metadata embedded into the binary at compile
// time via -ldflags: application name, build timestamp, Git commit and
// semantic version. Development builds without ldflags fall back to
// "dev" placeholders.
package build

// Populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// GetInfo returns the embedded build metadata, substituting "dev" for
// any flag that was not set at link time.
func GetInfo() Info {
	info := Info{
		Name:    buildName,
		Time:    buildTime,
		Commit:  buildCommit,
		Version: buildVersion,
	}
	if info.Name == "" {
		info.Name = "vizd"
	}
	if info.Time == "" {
		info.Time = "dev"
	}
	if info.Commit == "" {
		info.Commit = "dev"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}
