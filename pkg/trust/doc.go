// Package trust provides signature verifiers for discovered plugin files.
//
// # Verifiers
//
// ChecksumVerifier: trusts files whose SHA-256 digest appears in a YAML manifest
// CachingVerifier: memoizes decisions from another verifier in an expiring LRU
// AllowAll, DenyAll: fixed decisions for development and tests
//
// # Manifest Format
//
//	plugins:
//	  - path: /opt/spoke/plugins/rust-gen/rust-gen
//	    sha256: 9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08
//	digests:
//	  - 2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae
//
// A path entry pins the digest for that file. Digests listed under "digests"
// are trusted at any path without a pin.
//
// # Usage Example
//
//	manifest, err := trust.LoadManifest("/etc/spoke/trusted-plugins.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	verifier, err := trust.NewCachingVerifier(trust.NewChecksumVerifier(manifest, logger), nil, metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	discoverer, err := plugins.NewDiscoverer(rawPaths, verifier, logger)
//
// # Related Packages
//
//   - pkg/plugins: Consumes verifiers during discovery
package trust
