package pdf

import (
	"sort"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/bookparse/internal/document"
)

// maxOutlineNodes bounds outline traversal. Sibling chains are linked
// lists in the file, so a cycle would otherwise loop forever.
const maxOutlineNodes = 4096

// Outline walks the document outline tree into TocEntry form. Returns
// nil when the document has no outline or it cannot be traversed.
func (f *File) Outline() (entries []document.TocEntry) {
	defer func() {
		if recover() != nil {
			entries = nil
		}
	}()

	outlines := f.reader.Trailer().Key("Root").Key("Outlines")
	if outlines.IsNull() {
		return nil
	}
	first := outlines.Key("First")
	if first.IsNull() {
		return nil
	}

	budget := maxOutlineNodes
	return f.walkOutline(first, &budget)
}

func (f *File) walkOutline(node pdflib.Value, budget *int) []document.TocEntry {
	var entries []document.TocEntry
	for ; !node.IsNull() && *budget > 0; node = node.Key("Next") {
		*budget--

		entry := document.TocEntry{
			Label: strings.TrimSpace(node.Key("Title").Text()),
			Page:  f.resolvePage(node),
		}
		if first := node.Key("First"); !first.IsNull() {
			entry.Children = f.walkOutline(first, budget)
		}
		entries = append(entries, entry)
	}
	return entries
}

// resolvePage follows an outline item's destination to a 1-based page
// number. Items without a resolvable destination yield 0, meaning no
// direct jump target.
func (f *File) resolvePage(node pdflib.Value) (page int) {
	defer func() {
		if recover() != nil {
			page = 0
		}
	}()

	dest := node.Key("Dest")
	if dest.IsNull() {
		action := node.Key("A")
		if action.IsNull() || action.Key("S").Name() != "GoTo" {
			return 0
		}
		dest = action.Key("D")
	}

	// Named destinations indirect through the name tree.
	switch dest.Kind() {
	case pdflib.Name:
		dest = f.namedDest(dest.Name())
	case pdflib.String:
		dest = f.namedDest(dest.RawString())
	case pdflib.Dict:
		dest = dest.Key("D")
	}
	if dest.Kind() != pdflib.Array || dest.Len() == 0 {
		return 0
	}

	idx, ok := f.pages[fingerprint(dest.Index(0))]
	if !ok {
		return 0
	}
	return idx + 1
}

// namedDest looks a destination name up in the catalog's name tree,
// falling back to the legacy Dests dictionary.
func (f *File) namedDest(name string) pdflib.Value {
	root := f.reader.Trailer().Key("Root")

	if tree := root.Key("Names").Key("Dests"); !tree.IsNull() {
		if v := lookupNameTree(tree, name, 32); !v.IsNull() {
			return v
		}
	}
	return root.Key("Dests").Key(name)
}

// lookupNameTree searches a name tree node for name. Leaf nodes carry a
// Names array of alternating keys and values; interior nodes carry Kids.
func lookupNameTree(node pdflib.Value, name string, depth int) pdflib.Value {
	if depth <= 0 {
		return pdflib.Value{}
	}

	if names := node.Key("Names"); names.Kind() == pdflib.Array {
		for i := 0; i+1 < names.Len(); i += 2 {
			if names.Index(i).RawString() == name {
				return names.Index(i + 1)
			}
		}
		return pdflib.Value{}
	}

	if kids := node.Key("Kids"); kids.Kind() == pdflib.Array {
		for i := 0; i < kids.Len(); i++ {
			kid := kids.Index(i)
			limits := kid.Key("Limits")
			if limits.Kind() == pdflib.Array && limits.Len() == 2 {
				if name < limits.Index(0).RawString() || name > limits.Index(1).RawString() {
					continue
				}
			}
			if v := lookupNameTree(kid, name, depth-1); !v.IsNull() {
				return v
			}
		}
	}
	return pdflib.Value{}
}

// fingerprint derives a stable key for a page dictionary from its
// structure. The reader resolves indirect references transparently, so
// two lookups of the same page object compare equal only by content.
// Byte-identical page dictionaries collide; the first page wins.
func fingerprint(v pdflib.Value) string {
	var sb strings.Builder
	writeFingerprint(&sb, v, 2)
	return sb.String()
}

func writeFingerprint(sb *strings.Builder, v pdflib.Value, depth int) {
	switch v.Kind() {
	case pdflib.Null:
		sb.WriteString("null")
	case pdflib.Bool:
		sb.WriteString(strconv.FormatBool(v.Bool()))
	case pdflib.Integer:
		sb.WriteString(strconv.FormatInt(v.Int64(), 10))
	case pdflib.Real:
		sb.WriteString(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case pdflib.String:
		sb.WriteByte('(')
		sb.WriteString(v.RawString())
		sb.WriteByte(')')
	case pdflib.Name:
		sb.WriteByte('/')
		sb.WriteString(v.Name())
	case pdflib.Array:
		sb.WriteByte('[')
		if depth > 0 {
			for i := 0; i < v.Len(); i++ {
				if i > 0 {
					sb.WriteByte(' ')
				}
				writeFingerprint(sb, v.Index(i), depth-1)
			}
		}
		sb.WriteByte(']')
	case pdflib.Dict, pdflib.Stream:
		sb.WriteString("<<")
		if depth > 0 {
			keys := v.Keys()
			sort.Strings(keys)
			for _, key := range keys {
				// The parent link would walk back up the page tree.
				if key == "Parent" {
					continue
				}
				sb.WriteByte('/')
				sb.WriteString(key)
				sb.WriteByte(' ')
				writeFingerprint(sb, v.Key(key), depth-1)
			}
		}
		sb.WriteString(">>")
	}
}
