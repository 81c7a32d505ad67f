package plugins

import (
	"runtime"
	"strings"
)

// PathClass is the lexical classification of a candidate plugin path
type PathClass int

const (
	// PathRejected marks a path that is neither an absolute local path nor a UNC path
	PathRejected PathClass = iota
	// PathAcceptable marks a path that may be checked on disk
	PathAcceptable
)

func (c PathClass) String() string {
	if c == PathAcceptable {
		return "acceptable"
	}
	return "rejected"
}

// reservedWindowsChars may not appear in a windows path component
const reservedWindowsChars = `<>"|?*`

// ClassifyPath decides whether a candidate path may be checked on disk.
// UNC paths are only acceptable on windows. It never touches the filesystem.
func ClassifyPath(path string) PathClass {
	return classifyPath(path, runtime.GOOS)
}

func classifyPath(path, goos string) PathClass {
	if isValidLocalPath(path, goos) {
		return PathAcceptable
	}
	if goos == "windows" && IsValidUNCPath(path) {
		return PathAcceptable
	}
	return PathRejected
}

// IsValidLocalPath reports whether path is a well-formed absolute path on the host platform
func IsValidLocalPath(path string) bool {
	return isValidLocalPath(path, runtime.GOOS)
}

// IsValidUNCPath reports whether path is a well-formed \\server\share path
func IsValidUNCPath(path string) bool {
	if !strings.HasPrefix(path, `\\`) || hasControlChars(path) {
		return false
	}

	parts := strings.Split(path[2:], `\`)
	if len(parts) < 2 {
		return false
	}

	server, share := parts[0], parts[1]
	if server == "" || share == "" {
		return false
	}

	// \\?\ and \\.\ are device namespaces, not network shares
	if server == "?" || server == "." {
		return false
	}

	for _, component := range parts[:2] {
		if strings.ContainsAny(component, reservedWindowsChars+":/") {
			return false
		}
	}

	for _, component := range parts[2:] {
		if strings.ContainsAny(component, reservedWindowsChars+":") {
			return false
		}
	}

	return true
}

func isValidLocalPath(path, goos string) bool {
	if path == "" || hasControlChars(path) {
		return false
	}

	if goos != "windows" {
		return strings.HasPrefix(path, "/")
	}

	if len(path) < 3 || !isDriveLetter(path[0]) || path[1] != ':' {
		return false
	}
	if path[2] != '\\' && path[2] != '/' {
		return false
	}

	rest := path[3:]
	return !strings.ContainsAny(rest, reservedWindowsChars+":")
}

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func hasControlChars(path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] < 0x20 {
			return true
		}
	}
	return false
}
