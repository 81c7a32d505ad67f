package plugins

import (
	"context"
)

// PluginFileState is the trust and availability state of a candidate plugin file
type PluginFileState string

const (
	PluginFileStateValid                    PluginFileState = "valid"
	PluginFileStateInvalidEmbeddedSignature PluginFileState = "invalid_embedded_signature"
	PluginFileStateNotFound                 PluginFileState = "not_found"
	PluginFileStateInvalidFilePath          PluginFileState = "invalid_file_path"
)

// IsUsable reports whether a plugin in this state may be launched
func (s PluginFileState) IsUsable() bool {
	return s == PluginFileStateValid
}

// PluginFile is a candidate plugin path with a lazily computed state
type PluginFile struct {
	Path  string
	State *Lazy[PluginFileState]
}

// NewPluginFile creates a plugin file. The state is not evaluated until read.
func NewPluginFile(path string, state *Lazy[PluginFileState]) *PluginFile {
	return &PluginFile{
		Path:  path,
		State: state,
	}
}

// DiscoveryResult is one entry of a discovered plugin inventory
type DiscoveryResult struct {
	PluginFile *PluginFile
}

// SignatureVerifier decides whether a plugin file is trusted.
// IsValid may perform I/O; it is called at most once per discovered file.
type SignatureVerifier interface {
	IsValid(filePath string) bool
}

// SignatureVerifierFunc adapts a function to SignatureVerifier
type SignatureVerifierFunc func(filePath string) bool

// IsValid calls f(filePath)
func (f SignatureVerifierFunc) IsValid(filePath string) bool {
	return f(filePath)
}

// ConventionSource resolves candidate plugin paths by scanning well-known directories.
// Implementations return paths in a stable order.
type ConventionSource interface {
	ResolveConventionPaths(ctx context.Context, directories []string) ([]string, error)
}

// CacheState describes the lifecycle of a discoverer's inventory
type CacheState int32

const (
	CacheStateNone CacheState = iota
	CacheStateInProgress
	CacheStateReady
)

func (s CacheState) String() string {
	switch s {
	case CacheStateInProgress:
		return "in_progress"
	case CacheStateReady:
		return "ready"
	default:
		return "none"
	}
}
