package trust

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Verifier decides whether a plugin file is trusted
type Verifier interface {
	IsValid(filePath string) bool
}

// Manifest lists trusted plugin digests
type Manifest struct {
	Plugins []ManifestEntry `yaml:"plugins"`
	Digests []string        `yaml:"digests"` // Trusted regardless of path
}

// ManifestEntry pins a digest to a plugin path
type ManifestEntry struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

// ChecksumVerifier trusts files whose SHA-256 digest is listed in a manifest
type ChecksumVerifier struct {
	byPath  map[string]string
	digests map[string]struct{}
	log     *logrus.Logger
}

// LoadManifest reads a trust manifest from a YAML file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trust manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse trust manifest: %w", err)
	}

	for i, entry := range manifest.Plugins {
		if entry.Path == "" {
			return nil, fmt.Errorf("%w: plugins[%d] has no path", ErrInvalidManifest, i)
		}
		if !isHexDigest(entry.SHA256) {
			return nil, fmt.Errorf("%w: plugins[%d] has malformed sha256 %q", ErrInvalidManifest, i, entry.SHA256)
		}
	}
	for i, digest := range manifest.Digests {
		if !isHexDigest(digest) {
			return nil, fmt.Errorf("%w: digests[%d] is malformed", ErrInvalidManifest, i)
		}
	}

	return &manifest, nil
}

// NewChecksumVerifier creates a verifier from a manifest
func NewChecksumVerifier(manifest *Manifest, log *logrus.Logger) *ChecksumVerifier {
	if log == nil {
		log = logrus.New()
	}

	v := &ChecksumVerifier{
		byPath:  make(map[string]string),
		digests: make(map[string]struct{}),
		log:     log,
	}

	if manifest == nil {
		return v
	}

	for _, entry := range manifest.Plugins {
		v.byPath[filepath.Clean(entry.Path)] = strings.ToLower(entry.SHA256)
	}
	for _, digest := range manifest.Digests {
		v.digests[strings.ToLower(digest)] = struct{}{}
	}

	return v
}

// IsValid hashes the file and compares it with the manifest. Read failures are untrusted.
func (v *ChecksumVerifier) IsValid(filePath string) bool {
	digest, err := FileDigest(filePath)
	if err != nil {
		v.log.Warnf("Failed to hash plugin file %s: %v", filePath, err)
		return false
	}

	if pinned, ok := v.byPath[filepath.Clean(filePath)]; ok {
		return pinned == digest
	}

	_, ok := v.digests[digest]
	return ok
}

// FileDigest returns the lowercase hex SHA-256 digest of a file
func FileDigest(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHexDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// AllowAll trusts every file
type AllowAll struct{}

// IsValid returns true
func (AllowAll) IsValid(string) bool { return true }

// DenyAll trusts no file
type DenyAll struct{}

// IsValid returns false
func (DenyAll) IsValid(string) bool { return false }
