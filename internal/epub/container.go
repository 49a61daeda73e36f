package epub

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/dgallion1/bookparse/internal/document"
)

// containerPath is the fixed location of the container pointer file.
const containerPath = "META-INF/container.xml"

// ManifestEntry is one declared resource of the package manifest. Path is
// pre-resolved to an absolute archive-internal path.
type ManifestEntry struct {
	ID         string
	Href       string
	Path       string
	MediaType  string
	Properties string
}

// SpineEntry is one ordered reference into the manifest. Spine order is
// the canonical reading order.
type SpineEntry struct {
	IDRef string
	Item  ManifestEntry
}

// Package is the parsed package descriptor: metadata, manifest, and spine.
type Package struct {
	Title   string
	Author  string
	OPFPath string

	Manifest map[string]ManifestEntry
	Items    []ManifestEntry // manifest in document order
	Spine    []SpineEntry

	// NCXID is the spine's toc attribute, naming the NCX manifest item.
	NCXID string
	// MetaCoverID is the manifest id named by <meta name="cover">.
	MetaCoverID string
}

// hasProperty reports whether the entry's space-separated properties
// attribute contains the given token.
func (m ManifestEntry) hasProperty(prop string) bool {
	for _, p := range strings.Fields(m.Properties) {
		if p == prop {
			return true
		}
	}
	return false
}

// parsePackage locates and parses the package descriptor. Missing container
// pointer, missing package path, and missing or unparseable descriptor are
// all fatal. Absent title/author metadata is not: the file name and
// "Unknown Author" are substituted.
func parsePackage(ar *Archive, filename string, log *slog.Logger) (*Package, error) {
	containerData, err := ar.ReadEntry(containerPath)
	if err != nil {
		return nil, fmt.Errorf("epub: missing container pointer: %w", document.ErrInvalidArchive)
	}

	container, err := xmlquery.Parse(bytes.NewReader(stripBOM(containerData)))
	if err != nil {
		return nil, fmt.Errorf("epub: parse container: %v: %w", err, document.ErrInvalidArchive)
	}

	rootfile := xmlquery.FindOne(container, "//rootfile")
	if rootfile == nil {
		return nil, fmt.Errorf("epub: container has no rootfile: %w", document.ErrInvalidArchive)
	}
	opfPath := strings.TrimSpace(rootfile.SelectAttr("full-path"))
	if opfPath == "" {
		return nil, fmt.Errorf("epub: rootfile has no full-path: %w", document.ErrInvalidArchive)
	}

	opfData, err := ar.ReadEntry(opfPath)
	if err != nil {
		return nil, fmt.Errorf("epub: missing package descriptor %s: %w", opfPath, document.ErrInvalidArchive)
	}

	opf, err := xmlquery.Parse(bytes.NewReader(stripBOM(opfData)))
	if err != nil {
		return nil, fmt.Errorf("epub: parse package descriptor: %v: %w", err, document.ErrInvalidArchive)
	}

	p := &Package{
		OPFPath:  opfPath,
		Manifest: make(map[string]ManifestEntry),
		Title:    document.TitleFromFilename(filename),
		Author:   document.UnknownAuthor,
	}

	// Metadata elements are usually in the dc namespace; match by local
	// name so both <dc:title> and <title> resolve.
	if n := xmlquery.FindOne(opf, "//metadata/*[local-name()='title']"); n != nil {
		if t := strings.TrimSpace(n.InnerText()); t != "" {
			p.Title = t
		}
	}
	if n := xmlquery.FindOne(opf, "//metadata/*[local-name()='creator']"); n != nil {
		if a := strings.TrimSpace(n.InnerText()); a != "" {
			p.Author = a
		}
	}

	for _, meta := range xmlquery.Find(opf, "//metadata/meta") {
		if strings.EqualFold(meta.SelectAttr("name"), "cover") {
			if content := strings.TrimSpace(meta.SelectAttr("content")); content != "" {
				p.MetaCoverID = content
				break
			}
		}
	}

	for _, item := range xmlquery.Find(opf, "//manifest/item") {
		entry := ManifestEntry{
			ID:         item.SelectAttr("id"),
			Href:       item.SelectAttr("href"),
			MediaType:  item.SelectAttr("media-type"),
			Properties: item.SelectAttr("properties"),
		}
		entry.Path = resolveRelative(opfPath, entry.Href)
		p.Items = append(p.Items, entry)
		if entry.ID != "" {
			if _, ok := p.Manifest[entry.ID]; !ok {
				p.Manifest[entry.ID] = entry
			}
		}
	}

	if spine := xmlquery.FindOne(opf, "//spine"); spine != nil {
		p.NCXID = spine.SelectAttr("toc")
	}
	for _, ref := range xmlquery.Find(opf, "//spine/itemref") {
		idref := ref.SelectAttr("idref")
		item, ok := p.Manifest[idref]
		if !ok {
			// Unresolved spine references are skipped, not fatal;
			// that chapter is simply omitted.
			log.Warn("spine reference has no manifest entry", "idref", idref)
			continue
		}
		p.Spine = append(p.Spine, SpineEntry{IDRef: idref, Item: item})
	}

	return p, nil
}
