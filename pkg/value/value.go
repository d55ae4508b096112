// Package value defines the universal data quantum that flows between ports,
// steps and runnables: a primitive, a sequence, a mapping, or a File handle.
package value

import "path/filepath"

// FileTypeTag is the reserved "@type" discriminator for a File handle.
const FileTypeTag = "File"

// IsFile reports whether v is a File handle: a map with "@type" == "File".
// The "path" entry is not inspected.
func IsFile(v interface{}) bool {
	m, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	t, _ := m["@type"].(string)
	return t == FileTypeTag
}

// NewFile builds a File handle for the given absolute path.
func NewFile(absPath string) map[string]interface{} {
	return map[string]interface{}{
		"@type": FileTypeTag,
		"path":  absPath,
	}
}

// FilePath extracts the path of a File handle, or "" if v is not one.
func FilePath(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	p, _ := m["path"].(string)
	return p
}

// Basename is a test/debugging convenience that reduces a File handle to
// its basename, mirroring the reference implementation's path_to_name
// helper so assertions don't depend on host-specific absolute paths.
func Basename(v interface{}) interface{} {
	switch t := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = Basename(e)
		}
		return out
	case map[string]interface{}:
		if IsFile(t) {
			return map[string]interface{}{"name": filepath.Base(FilePath(t))}
		}
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = Basename(e)
		}
		return out
	default:
		return v
	}
}

// Depth computes the nesting level of v: 0 for a scalar or an empty
// sequence, otherwise 1 + Depth of its first element. A File handle (a
// map) is a scalar for depth purposes, not a sequence.
func Depth(v interface{}) int {
	seq, ok := v.([]interface{})
	if !ok || len(seq) == 0 {
		return 0
	}
	return 1 + Depth(seq[0])
}

// AsSequence returns v as a []interface{}, or (nil, false) if it is not one.
func AsSequence(v interface{}) ([]interface{}, bool) {
	seq, ok := v.([]interface{})
	return seq, ok
}
