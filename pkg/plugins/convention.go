package plugins

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// HomePluginsEnvVar overrides the home plugins directory
const HomePluginsEnvVar = "SPOKE_PLUGINS_HOME"

// FileSystemConventionSource finds plugins laid out as <dir>/<name>/<name>.
// A plugin.yaml descriptor in the plugin directory may name a different entrypoint.
//
// Directories are scanned concurrently; results keep directory order and,
// within a directory, the lexical order of its entries.
type FileSystemConventionSource struct {
	log *logrus.Logger
}

// NewFileSystemConventionSource creates a filesystem convention source
func NewFileSystemConventionSource(log *logrus.Logger) *FileSystemConventionSource {
	if log == nil {
		log = logrus.New()
	}

	return &FileSystemConventionSource{log: log}
}

// ResolveConventionPaths returns candidate plugin files under directories.
// Missing or unreadable directories are skipped.
func (s *FileSystemConventionSource) ResolveConventionPaths(ctx context.Context, directories []string) ([]string, error) {
	perDir := make([][]string, len(directories))

	g, ctx := errgroup.WithContext(ctx)
	for i, dir := range directories {
		g.Go(func() error {
			paths, err := s.scanDirectory(ctx, dir)
			if err != nil {
				return err
			}
			perDir[i] = paths
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var paths []string
	for _, dirPaths := range perDir {
		paths = append(paths, dirPaths...)
	}
	return paths, nil
}

func (s *FileSystemConventionSource) scanDirectory(ctx context.Context, dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		s.log.Debugf("Plugin directory does not exist: %s", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.log.Warnf("Failed to read plugin directory %s: %v", dir, err)
		return nil, nil
	}

	var paths []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !entry.IsDir() {
			continue
		}

		paths = append(paths, s.candidatePath(filepath.Join(dir, entry.Name()), entry.Name()))
	}

	return paths, nil
}

func (s *FileSystemConventionSource) candidatePath(pluginDir, name string) string {
	fallback := filepath.Join(pluginDir, pluginFileName(name))

	if _, err := os.Stat(filepath.Join(pluginDir, DescriptorFileName)); err != nil {
		return fallback
	}

	descriptor, err := LoadDescriptorFromDir(pluginDir)
	if err != nil {
		s.log.Warnf("Ignoring plugin descriptor in %s: %v", pluginDir, err)
		return fallback
	}

	if errs := ValidateDescriptor(descriptor); len(errs) > 0 {
		s.log.WithField("errors", errs).Warnf("Ignoring invalid plugin descriptor in %s", pluginDir)
		return fallback
	}

	return filepath.Join(pluginDir, descriptor.Entrypoint)
}

func pluginFileName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// HomePluginsDirectory returns the per-user plugin directory
func HomePluginsDirectory() string {
	if dir := os.Getenv(HomePluginsEnvVar); dir != "" {
		return dir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}

	return filepath.Join(homeDir, ".spoke", "plugins")
}
