//go:build !windows

package plugins

// InternalPluginsDirectory returns "" because bundled plugins are only supported on windows hosts
func InternalPluginsDirectory() string {
	return ""
}
