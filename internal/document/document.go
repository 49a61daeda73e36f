package document

import (
	"path/filepath"
	"strings"
)

// Type identifies which downstream fields of a Document are meaningful.
type Type string

const (
	TypeText Type = "text"
	TypePDF  Type = "pdf"
	TypeEPUB Type = "epub"
)

// UnknownAuthor is substituted when the source carries no author metadata.
const UnknownAuthor = "Unknown Author"

// PDFContentPlaceholder is the Content value for PDF documents. Pages are
// rendered on demand from Payload by the consumer's renderer; they are
// never materialized here.
const PDFContentPlaceholder = "application/pdf"

// Document is the normalized output record of the ingestion engine.
// It is immutable once produced; nothing in it is shared with the parser
// that built it.
type Document struct {
	Title  string `json:"title"`
	Author string `json:"author"`

	// Content is raw text for text/Markdown, the ordered HTML
	// concatenation of all chapters for EPUB, and
	// PDFContentPlaceholder for PDF.
	Content string `json:"content"`

	Type Type `json:"document_type"`

	// Payload holds the original file bytes for PDF only. It is an
	// independent copy of the caller's buffer.
	Payload []byte `json:"binary_payload,omitempty"`

	// TOC is nil when the source has no table of contents.
	TOC []TocEntry `json:"table_of_contents,omitempty"`

	// Cover is a self-contained data URI, empty when no cover was found.
	Cover string `json:"cover_image,omitempty"`
}

// TocEntry is one node of a table-of-contents tree. Exactly one locator is
// set: Page for PDF sources (1-based; 0 means the destination could not be
// resolved), Anchor for EPUB and Markdown sources.
//
// Children is nil for a PDF leaf node. EPUB and Markdown entries with no
// nested entries carry an empty, non-nil slice.
type TocEntry struct {
	Label    string     `json:"label"`
	Page     int        `json:"page,omitempty"`
	Anchor   string     `json:"anchor,omitempty"`
	Children []TocEntry `json:"children,omitempty"`
}

// TitleFromFilename derives a display title from a file name by stripping
// any directory prefix and the extension.
func TitleFromFilename(name string) string {
	base := filepath.Base(name)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if title == "" {
		return base
	}
	return title
}
