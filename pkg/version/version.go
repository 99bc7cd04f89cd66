// Package version provides version information for report-publisher.
// These variables are set via ldflags during the build process.
package version

import "runtime"

// Version is the current version of the binary.
// Set via -ldflags "-X github.com/cicd-ai-toolkit/report-publisher/pkg/version.Version=..."
var Version = "dev"

// BuildDate is the date when the binary was built.
// Set via -ldflags "-X github.com/cicd-ai-toolkit/report-publisher/pkg/version.BuildDate=..."
var BuildDate = "unknown"

// GitCommit is the git commit hash used to build the binary.
// Set via -ldflags "-X github.com/cicd-ai-toolkit/report-publisher/pkg/version.GitCommit=..."
var GitCommit = "unknown"

// String returns a formatted version string.
func String() string {
	return Version
}

// FullString returns a detailed version string including build info.
func FullString() string {
	if Version == "dev" {
		return "report-publisher development version"
	}
	return "report-publisher " + Version
}

// Info returns all version information as a map.
func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"buildDate": BuildDate,
		"gitCommit": GitCommit,
		"goVersion": runtime.Version(),
	}
}
