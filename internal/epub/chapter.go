package epub

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"log/slog"
	"path"
	"strings"
	"sync"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// imageMIME maps an image file extension to its MIME type for data URIs.
func imageMIME(name string) string {
	switch strings.ToLower(path.Ext(stripRefSuffix(name))) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// chapterLoadHook, when set, runs before each chapter's load with the
// chapter's spine index. Tests use it to skew completion order.
var chapterLoadHook func(i int)

// assembleChapters loads and transforms every spine entry concurrently and
// joins the results in spine order. Completion order never influences the
// output order.
func assembleChapters(ar *Archive, p *Package, log *slog.Logger) string {
	parts := make([]string, len(p.Spine))

	var wg sync.WaitGroup
	for i, se := range p.Spine {
		wg.Add(1)
		go func(i int, se SpineEntry) {
			defer wg.Done()
			if chapterLoadHook != nil {
				chapterLoadHook(i)
			}
			parts[i] = renderChapter(ar, se.Item, log)
		}(i, se)
	}
	wg.Wait()

	var nonEmpty []string
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

// renderChapter produces the transformed HTML fragment for one chapter.
// A missing chapter file contributes empty content; it is never fatal.
func renderChapter(ar *Archive, item ManifestEntry, log *slog.Logger) string {
	data, err := ar.ReadEntry(item.Path)
	if err != nil {
		log.Warn("chapter file missing, skipping", "path", item.Path, "error", err)
		return ""
	}

	doc, err := xhtml.Parse(bytes.NewReader(stripBOM(data)))
	if err != nil {
		log.Warn("chapter markup unparseable, skipping", "path", item.Path, "error", err)
		return ""
	}

	inlineImages(ar, doc, item.Path, log)
	sanitizeNode(doc)

	body := findElement(doc, atom.Body)
	if body == nil {
		return ""
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := xhtml.Render(&buf, c); err != nil {
			log.Warn("chapter render failed", "path", item.Path, "error", err)
			return ""
		}
	}

	// The wrapper id is the chapter file name; TOC entries address
	// chapters by file name, not full path.
	return fmt.Sprintf(`<div id="%s" data-path="%s">%s</div>`,
		html.EscapeString(path.Base(item.Path)),
		html.EscapeString(item.Path),
		buf.String())
}

// imageRef is one embedded image reference scheduled for inlining.
type imageRef struct {
	node *xhtml.Node
	attr int
	src  string
}

// inlineImages replaces relative image references with base64 data URIs.
// All lookups for one chapter are dispatched together; a failed lookup
// leaves its reference untouched and never affects sibling images.
func inlineImages(ar *Archive, doc *xhtml.Node, chapterPath string, log *slog.Logger) {
	var refs []imageRef
	var collect func(*xhtml.Node)
	collect = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode {
			switch n.DataAtom {
			case atom.Img:
				collectImageAttr(&refs, n, "", "src")
			case atom.Image:
				// SVG <image> uses xlink:href or href.
				collectImageAttr(&refs, n, "xlink", "href")
				collectImageAttr(&refs, n, "", "href")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(doc)

	if len(refs) == 0 {
		return
	}

	inlined := make([]string, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref imageRef) {
			defer wg.Done()
			target := resolveRelative(chapterPath, ref.src)
			data, err := ar.ReadEntry(target)
			if err != nil {
				log.Warn("embedded image not found, leaving reference",
					"chapter", chapterPath, "image", ref.src, "error", err)
				return
			}
			inlined[i] = "data:" + imageMIME(ref.src) + ";base64," +
				base64.StdEncoding.EncodeToString(data)
		}(i, ref)
	}
	wg.Wait()

	for i, ref := range refs {
		if inlined[i] != "" {
			ref.node.Attr[ref.attr].Val = inlined[i]
		}
	}
}

// collectImageAttr records the matching attribute on n when its value is a
// relative reference worth inlining. Absolute URLs, data URIs, and other
// scheme-qualified references are left alone.
func collectImageAttr(refs *[]imageRef, n *xhtml.Node, namespace, key string) {
	for i, attr := range n.Attr {
		if !matchAttr(attr, namespace, key) {
			continue
		}
		val := strings.TrimSpace(attr.Val)
		if val == "" || strings.HasPrefix(val, "data:") || hasURIScheme(val) {
			continue
		}
		*refs = append(*refs, imageRef{node: n, attr: i, src: val})
	}
}

// matchAttr checks an attribute against a namespace and key; x/net/html
// may store namespaced attributes either way.
func matchAttr(attr xhtml.Attribute, namespace, key string) bool {
	if namespace == "" {
		return attr.Namespace == "" && attr.Key == key
	}
	if attr.Namespace == namespace && attr.Key == key {
		return true
	}
	return attr.Key == namespace+":"+key
}

// hasURIScheme reports whether s starts with a URI scheme such as "http:"
// or "mailto:".
func hasURIScheme(s string) bool {
	if s == "" {
		return false
	}
	if !((s[0] >= 'A' && s[0] <= 'Z') || (s[0] >= 'a' && s[0] <= 'z')) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ':' {
			return i > 1
		}
		if !(c == '+' || c == '-' || c == '.' ||
			(c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
			return false
		}
	}
	return false
}

// sanitizeNode strips attributes that would take navigation out of the
// reading surface: target on links (forced new tabs) and event handlers.
func sanitizeNode(n *xhtml.Node) {
	if n.Type == xhtml.ElementNode {
		cleaned := n.Attr[:0]
		for _, attr := range n.Attr {
			key := strings.ToLower(attr.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if key == "target" && n.DataAtom == atom.A {
				continue
			}
			cleaned = append(cleaned, attr)
		}
		n.Attr = cleaned
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sanitizeNode(c)
	}
}

// findElement performs a depth-first search for the first element with the
// given tag.
func findElement(n *xhtml.Node, a atom.Atom) *xhtml.Node {
	if n.Type == xhtml.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
