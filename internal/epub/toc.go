package epub

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/bookparse/internal/document"
)

// ncxMediaType identifies the legacy NCX navigation document in the manifest.
const ncxMediaType = "application/x-dtbncx+xml"

// parseTOC extracts the table of contents. The NCX navigation map is the
// primary source; EPUB 3 archives without an NCX fall back to the nav
// document. Returns nil when neither yields entries.
func parseTOC(ar *Archive, p *Package, log *slog.Logger) []document.TocEntry {
	if item, ok := findNCX(p); ok {
		data, err := ar.ReadEntry(item.Path)
		if err == nil {
			entries, err := parseNCX(data)
			if err != nil {
				log.Warn("ncx unparseable", "path", item.Path, "error", err)
			} else if len(entries) > 0 {
				return entries
			}
		} else {
			log.Warn("ncx missing from archive", "path", item.Path)
		}
	}

	for _, item := range p.Items {
		if !item.hasProperty("nav") {
			continue
		}
		data, err := ar.ReadEntry(item.Path)
		if err != nil {
			log.Warn("nav document missing from archive", "path", item.Path)
			break
		}
		entries, err := parseNavDocument(data)
		if err != nil {
			log.Warn("nav document unparseable", "path", item.Path, "error", err)
			break
		}
		if len(entries) > 0 {
			return entries
		}
		break
	}

	return nil
}

// findNCX locates the NCX manifest item, by the spine's toc attribute
// first, then by media type.
func findNCX(p *Package) (ManifestEntry, bool) {
	if p.NCXID != "" {
		if item, ok := p.Manifest[p.NCXID]; ok {
			return item, true
		}
	}
	for _, item := range p.Items {
		if item.MediaType == ncxMediaType {
			return item, true
		}
	}
	return ManifestEntry{}, false
}

// parseNCX parses an NCX navigation map into a TocEntry tree. Sibling
// order follows document order. Targets are reduced to file-name#fragment
// because chapter anchors are keyed by file name only.
func parseNCX(data []byte) ([]document.TocEntry, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(stripBOM(data)))
	if err != nil {
		return nil, err
	}
	navMap := xmlquery.FindOne(doc, "//navMap")
	if navMap == nil {
		return nil, nil
	}
	return convertNavPoints(xmlquery.Find(navMap, "navPoint")), nil
}

// convertNavPoints converts direct-child navPoint elements, recursing into
// their own direct children. An entry with no child points carries an
// empty, non-nil children list.
func convertNavPoints(points []*xmlquery.Node) []document.TocEntry {
	if len(points) == 0 {
		return nil
	}

	entries := make([]document.TocEntry, 0, len(points))
	for _, np := range points {
		entry := document.TocEntry{Children: []document.TocEntry{}}

		if label := xmlquery.FindOne(np, "navLabel/text"); label != nil {
			entry.Label = strings.TrimSpace(label.InnerText())
		}
		if content := xmlquery.FindOne(np, "content"); content != nil {
			entry.Anchor = anchorTarget(content.SelectAttr("src"))
		}
		if children := convertNavPoints(xmlquery.Find(np, "navPoint")); children != nil {
			entry.Children = children
		}

		entries = append(entries, entry)
	}
	return entries
}

// parseNavDocument parses an EPUB 3 XHTML nav document's toc nav element.
func parseNavDocument(data []byte) ([]document.TocEntry, error) {
	doc, err := xhtml.Parse(bytes.NewReader(stripBOM(data)))
	if err != nil {
		return nil, err
	}

	nav := findTocNav(doc)
	if nav == nil {
		return nil, nil
	}
	ol := findElement(nav, atom.Ol)
	if ol == nil {
		return nil, nil
	}
	return parseNavList(ol), nil
}

// findTocNav returns the first <nav> whose epub:type tokens include "toc".
func findTocNav(n *xhtml.Node) *xhtml.Node {
	if n.Type == xhtml.ElementNode && n.DataAtom == atom.Nav {
		for _, attr := range n.Attr {
			if attr.Key == "epub:type" || (attr.Namespace == "epub" && attr.Key == "type") {
				for _, tok := range strings.Fields(attr.Val) {
					if tok == "toc" {
						return n
					}
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTocNav(c); found != nil {
			return found
		}
	}
	return nil
}

func parseNavList(ol *xhtml.Node) []document.TocEntry {
	var entries []document.TocEntry
	for c := ol.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.ElementNode && c.DataAtom == atom.Li {
			entries = append(entries, parseNavItem(c))
		}
	}
	return entries
}

func parseNavItem(li *xhtml.Node) document.TocEntry {
	entry := document.TocEntry{Children: []document.TocEntry{}}

	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xhtml.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.A:
			if entry.Anchor == "" {
				for _, attr := range c.Attr {
					if attr.Key == "href" && attr.Val != "" {
						entry.Anchor = anchorTarget(attr.Val)
						break
					}
				}
				entry.Label = strings.TrimSpace(textContent(c))
			}
		case atom.Span:
			if entry.Label == "" {
				entry.Label = strings.TrimSpace(textContent(c))
			}
		case atom.Ol:
			if children := parseNavList(c); children != nil {
				entry.Children = children
			}
		}
	}
	return entry
}

// textContent collects the text content of a node's subtree.
func textContent(n *xhtml.Node) string {
	if n.Type == xhtml.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
