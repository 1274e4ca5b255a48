// Package mimetype guesses a content type from a file name.
package mimetype

import (
	"mime"
	"path/filepath"
	"strings"
)

// Default is returned for unknown extensions.
const Default = "application/octet-stream"

// ByPath returns the content type registered for p's extension, or Default.
func ByPath(p string) string {
	ext := strings.ToLower(filepath.Ext(p))
	if ext == "" {
		return Default
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return Default
}

// HasExtension reports whether p ends in one of exts. The comparison ignores
// case and tolerates extensions written without the leading dot.
func HasExtension(p string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if e == ext {
			return true
		}
	}
	return false
}
