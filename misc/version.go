// Package misc keeps small program-wide helpers: application identity and
// build information.
package misc

import "runtime/debug"

// appName is the short program name used for logging, temporary files and
// the CLI surface.
const appName = "cssnest"

// version is set at build time via -ldflags "-X cssnest/misc.version=...".
var version = ""

// GetAppName returns the short program name.
func GetAppName() string {
	return appName
}

// GetVersion returns the program version: the build-time override when set,
// otherwise the module version recorded in build info.
func GetVersion() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns the VCS revision recorded in build info, shortened to
// the usual 12 characters.
func GetGitHash() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return "unknown"
}
