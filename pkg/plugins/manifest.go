package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blang/semver"
	"gopkg.in/yaml.v3"
)

// DescriptorFileName is the optional descriptor inside a plugin directory
const DescriptorFileName = "plugin.yaml"

// Descriptor names the executable of a plugin directory when it differs from
// the directory name
type Descriptor struct {
	Name       string `yaml:"name"`
	Version    string `yaml:"version,omitempty"`
	Entrypoint string `yaml:"entrypoint"`
}

// ValidationError describes one invalid descriptor field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadDescriptor loads and parses a plugin descriptor from a file
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	var descriptor Descriptor
	if err := yaml.Unmarshal(data, &descriptor); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}

	return &descriptor, nil
}

// LoadDescriptorFromDir loads plugin.yaml from a plugin directory
func LoadDescriptorFromDir(dir string) (*Descriptor, error) {
	return LoadDescriptor(filepath.Join(dir, DescriptorFileName))
}

// ValidateDescriptor performs basic validation on a plugin descriptor
func ValidateDescriptor(descriptor *Descriptor) []ValidationError {
	var errors []ValidationError

	if descriptor.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "Plugin name is required",
		})
	}

	if descriptor.Entrypoint == "" {
		errors = append(errors, ValidationError{
			Field:   "entrypoint",
			Message: "Entrypoint is required",
		})
	} else if !isBareFileName(descriptor.Entrypoint) {
		errors = append(errors, ValidationError{
			Field:   "entrypoint",
			Message: fmt.Sprintf("Entrypoint must be a file name inside the plugin directory: %s", descriptor.Entrypoint),
		})
	}

	if descriptor.Version != "" && !isValidSemver(descriptor.Version) {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("Invalid semver format: %s", descriptor.Version),
		})
	}

	return errors
}

// isBareFileName rejects anything that could leave the plugin directory
func isBareFileName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

func isValidSemver(version string) bool {
	_, err := semver.Parse(strings.TrimPrefix(version, "v"))
	return err == nil
}
