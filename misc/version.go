// Package misc keeps build time information.
package misc

import "runtime/debug"

// set by linker
var (
	version = "dev"
	gitHash = ""
)

// GetAppName returns program name to be used in file names and logs.
func GetAppName() string {
	return "mbook"
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns commit hash program was built from, if known.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
