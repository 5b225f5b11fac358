// Package flags provides shared flag accessors for CLI commands.
// This package exists to avoid import cycles between the root command
// and noun subpackages (archives, profile, etc.).
package flags

// configFlag holds the value of the --config flag.
var configFlag string

// GetConfigFlag returns the current value of the --config flag.
func GetConfigFlag() string {
	return configFlag
}

// SetConfigFlag sets the config flag value. The root command calls this
// after parsing.
func SetConfigFlag(path string) {
	configFlag = path
}
