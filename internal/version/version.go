// Package version carries build identification stamped in via -ldflags.
package version

var (
	// Version is the current application version.
	Version = "dev"
	// GitSHA is the git commit SHA of the build.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String formats the three stamps as a single line for -version output.
func String() string {
	return "lidarsim " + Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
