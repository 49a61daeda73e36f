// Package parser dispatches raw document bytes to a format-specific
// parser and returns a normalized document.
package parser

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/bookparse/internal/document"
	"github.com/dgallion1/bookparse/internal/epub"
	"github.com/dgallion1/bookparse/internal/pdf"
)

// Parser converts raw document bytes into a normalized Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
	".epub":     true,
	".pdf":      true,
}

// ForFile returns the parser for a filename. Anything without a
// recognized extension falls to the plain-text parser, which rejects
// binary content itself.
func ForFile(filename string) Parser {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return &MarkdownParser{}
	case ".epub":
		return &EPUBParser{}
	case ".pdf":
		return &PDFParser{}
	default:
		return &TextParser{}
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == "" || SupportedExtensions[ext]
}

// Parse dispatches data to the parser selected by filename's extension.
// Files routed to the text parsers that turn out to carry an archive or
// PDF signature are retried with the matching binary parser, so a
// misnamed EPUB or PDF still parses. Explicit .epub and .pdf names get
// no such retry; their failures surface as-is.
func Parse(data []byte, filename string, log *slog.Logger) (*document.Document, error) {
	if log == nil {
		log = slog.Default()
	}

	p := ForFile(filename)
	switch p.(type) {
	case *TextParser, *MarkdownParser:
		if sniffed := sniffBinary(data, filename, log); sniffed != nil {
			if doc, err := sniffed.Parse(bytes.NewReader(data), filename); err == nil {
				return doc, nil
			}
			// Signature lied; fall through to the extension's parser.
		}
	}

	return p.Parse(bytes.NewReader(data), filename)
}

// Magic signatures for container formats that commonly arrive under a
// text extension.
var (
	magicZIP = []byte("PK\x03\x04")
	magicPDF = []byte("%PDF-")
)

func sniffBinary(data []byte, filename string, log *slog.Logger) Parser {
	switch {
	case bytes.HasPrefix(data, magicZIP):
		log.Debug("zip signature under text extension", "filename", filename)
		return &EPUBParser{log: log}
	case bytes.HasPrefix(data, magicPDF):
		log.Debug("pdf signature under text extension", "filename", filename)
		return &PDFParser{}
	default:
		return nil
	}
}

// EPUBParser handles EPUB archives.
type EPUBParser struct {
	log *slog.Logger
}

func (p *EPUBParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	log := p.log
	if log == nil {
		log = slog.Default()
	}
	return epub.Parse(data, filename, log)
}

// PDFParser handles PDF files.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return pdf.Parse(data, filename)
}
