// Package codec converts between (namespace, path) pairs and the opaque
// item identifiers used throughout the engine.
package codec

import (
	"path"
	"strings"
)

// prefix marks identifiers managed by this codec. Recent entries and
// mounted-device entries use their own id spaces and must not decode.
const prefix = "item:"

// Encode derives the identifier for a path within a namespace.
// An empty path denotes the namespace root.
func Encode(namespace, relPath string) string {
	return prefix + namespace + ":" + clean(relPath)
}

// Decode recovers the (namespace, path) pair from an identifier.
// ok is false for identifiers not produced by Encode; callers must treat
// that as an expected case, not an error.
func Decode(id string) (namespace, relPath string, ok bool) {
	rest, found := strings.CutPrefix(id, prefix)
	if !found {
		return "", "", false
	}
	namespace, relPath, found = strings.Cut(rest, ":")
	if !found || namespace == "" {
		return "", "", false
	}
	return namespace, relPath, true
}

// ParentID returns the identifier of the folder containing relPath, or ""
// when the item sits at the namespace root.
func ParentID(namespace, relPath string) string {
	relPath = clean(relPath)
	dir := path.Dir(relPath)
	if relPath == "" || dir == "." || dir == "/" {
		return ""
	}
	return Encode(namespace, dir)
}

// Dir returns the parent path of relPath, or "" at the namespace root.
func Dir(relPath string) string {
	relPath = clean(relPath)
	dir := path.Dir(relPath)
	if relPath == "" || dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// Join builds a child path from a parent path and a name.
func Join(parent, name string) string {
	parent = clean(parent)
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

func clean(p string) string {
	return strings.Trim(p, "/")
}
