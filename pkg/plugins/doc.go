// Package plugins discovers external plugin executables and reports whether each is usable.
//
// # Overview
//
// A Discoverer builds an inventory of candidate plugin files once per lifetime
// and shares it with every caller. Candidates come from an explicit
// semicolon-delimited path list or, when none is configured, from scanning the
// convention-based plugin directories.
//
// # Plugin Directories
//
// FileSystemConventionSource scans the home directory ($SPOKE_PLUGINS_HOME or
// ~/.spoke/plugins) and, on windows, the plugins directory next to the host
// executable. Every subdirectory is one plugin:
//
//	~/.spoke/plugins/
//	  rust/
//	    rust              # <name>/<name>, rust.exe on windows
//	  go/
//	    plugin.yaml       # entrypoint: protoc-gen-go
//	    protoc-gen-go
//
// DirectoryWatcher reports changes to these directories; a host rebuilds its
// Discoverer when it fires.
//
// # Plugin File States
//
// Each PluginFile carries a lazily evaluated state:
//
//	valid                       file exists and the verifier trusts it
//	invalid_embedded_signature  file exists but the verifier rejects it
//	not_found                   no file at the path
//	invalid_file_path           path is neither absolute nor UNC
//
// Malformed paths are rejected lexically and never reach the filesystem or the
// verifier. Other states are computed on first read and then reused.
//
// # Concurrency
//
// Discover may be called from any number of goroutines. One caller resolves
// candidates while the rest wait on the discoverer's gate; once the inventory
// is ready it is returned without locking. A cancelled attempt leaves nothing
// cached, so the next caller starts over.
//
// # Usage Example
//
//	discoverer, err := plugins.NewDiscoverer(os.Getenv("SPOKE_PLUGIN_PATHS"), verifier, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer discoverer.Close()
//
//	results, err := discoverer.Discover(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, result := range plugins.UsablePlugins(results) {
//		fmt.Println(result.PluginFile.Path)
//	}
//
// # Related Packages
//
//   - pkg/trust: Signature verifiers
//   - pkg/observability: Discovery metrics
package plugins
