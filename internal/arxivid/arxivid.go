// Package arxivid normalizes arXiv identifiers from feed entries, URLs, and filenames.
package arxivid

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// newStyle matches post-2007 identifiers, e.g. "2401.12345".
	newStyle = regexp.MustCompile(`^\d{4}\.\d{4,5}$`)
	// oldStyle matches pre-2007 identifiers, e.g. "cs/0112017" or "math.GT/0309136".
	oldStyle  = regexp.MustCompile(`^[a-z-]+(\.[A-Z]{2})?/\d{7}$`)
	versionRe = regexp.MustCompile(`v(\d+)$`)
)

// Normalize extracts a version-stripped identifier from a raw value, which may
// be a bare id ("2401.12345v2"), an abs URL ("https://arxiv.org/abs/2401.12345v2"),
// or a pdf URL. Returns the id and version (0 when no version suffix is present).
// The returned id is empty if nothing resembling an arXiv id is found.
func Normalize(raw string) (string, int) {
	id := strings.TrimSpace(raw)
	for _, marker := range []string{"/abs/", "/pdf/"} {
		if i := strings.Index(id, marker); i >= 0 {
			id = id[i+len(marker):]
			break
		}
	}
	id = strings.TrimSuffix(id, ".pdf")
	if i := strings.IndexAny(id, "?#"); i >= 0 {
		id = id[:i]
	}

	version := 0
	if m := versionRe.FindStringSubmatch(id); m != nil {
		version, _ = strconv.Atoi(m[1])
		id = id[:len(id)-len(m[0])]
	}
	if !Valid(id) {
		return "", 0
	}
	return id, version
}

// Valid reports whether id is a well-formed version-stripped arXiv identifier.
func Valid(id string) bool {
	return newStyle.MatchString(id) || oldStyle.MatchString(id)
}

// PDFURL returns the canonical PDF location for a version-stripped id.
func PDFURL(id string) string {
	return "https://arxiv.org/pdf/" + id
}

// LocalName returns the filename used for a locally stored PDF. Old-style ids
// contain a slash, which becomes an underscore (arXiv archives never use one,
// so the mapping is reversible).
func LocalName(id string) string {
	return strings.ReplaceAll(id, "/", "_") + ".pdf"
}

// PathParam returns the identifier form used in URL path segments. Old-style
// ids contain a slash, which would split the segment, so it becomes an
// underscore, same as LocalName.
func PathParam(id string) string {
	return strings.ReplaceAll(id, "/", "_")
}

// FromPathParam recovers an identifier from a URL path segment. Segments that
// are neither a valid id nor the underscore form are returned unchanged.
func FromPathParam(seg string) string {
	if Valid(seg) {
		return seg
	}
	if id := strings.Replace(seg, "_", "/", 1); Valid(id) {
		return id
	}
	return seg
}

// FromLocalName recovers the identifier from a stored PDF filename.
// Returns false for names that do not correspond to a valid id.
func FromLocalName(name string) (string, bool) {
	base := strings.TrimSuffix(name, ".pdf")
	if base == name {
		return "", false
	}
	id := base
	if !Valid(id) {
		id = strings.Replace(base, "_", "/", 1)
		if !Valid(id) {
			return "", false
		}
	}
	return id, true
}
