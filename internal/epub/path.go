package epub

import (
	"net/url"
	"strings"
)

// resolveRelative resolves ref against the directory containing base.
// Both are archive-internal, forward-slash paths. Query and fragment
// suffixes on ref are ignored, "." is a no-op, ".." pops one directory
// (pops past the archive root are ignored), and any other segment is
// appended.
func resolveRelative(base, ref string) string {
	ref = stripRefSuffix(ref)
	if decoded, err := url.PathUnescape(ref); err == nil {
		ref = decoded
	}

	var segs []string
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		segs = strings.Split(base[:i], "/")
	}

	for _, s := range strings.Split(ref, "/") {
		switch s {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, s)
		}
	}

	return strings.Join(segs, "/")
}

// stripRefSuffix removes a #fragment or ?query suffix from a reference.
func stripRefSuffix(ref string) string {
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		ref = ref[:i]
	}
	return strings.TrimSpace(ref)
}

// anchorTarget reduces a navigation reference to the file-name#fragment
// form used by chapter anchors, which are keyed by file name only.
func anchorTarget(ref string) string {
	ref = strings.TrimSpace(ref)
	frag := ""
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		frag = ref[i+1:]
		ref = ref[:i]
	}
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		ref = ref[:i]
	}
	if decoded, err := url.PathUnescape(ref); err == nil {
		ref = decoded
	}
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		ref = ref[i+1:]
	}
	if frag != "" {
		return ref + "#" + frag
	}
	return ref
}
