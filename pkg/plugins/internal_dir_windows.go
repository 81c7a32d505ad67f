//go:build windows

package plugins

import (
	"os"
	"path/filepath"
)

// InternalPluginsDirectory returns the plugins directory shipped next to the host executable
func InternalPluginsDirectory() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(exe), "plugins")
}
