package cli

// version is overridable at build time via -ldflags.
var version = "dev"

// Version returns the CLI version string.
func Version() string {
	return version
}
