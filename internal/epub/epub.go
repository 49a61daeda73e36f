// Package epub parses EPUB archives into normalized documents. The
// archive's package document drives everything: the spine orders the
// chapters, the manifest resolves images and covers, and the NCX or nav
// document supplies the table of contents.
package epub

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/bookparse/internal/document"
)

// Parse reads an EPUB archive from data and assembles a normalized
// document. filename supplies the title fallback when the package
// metadata has no title.
func Parse(data []byte, filename string, log *slog.Logger) (*document.Document, error) {
	ar, err := OpenArchive(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrInvalidArchive, err)
	}

	pkg, err := parsePackage(ar, filename, log)
	if err != nil {
		return nil, err
	}

	doc := &document.Document{
		Title:   pkg.Title,
		Author:  pkg.Author,
		Type:    document.TypeEPUB,
		Content: assembleChapters(ar, pkg, log),
		Cover:   findCover(ar, pkg, log),
		TOC:     parseTOC(ar, pkg, log),
	}
	return doc, nil
}
