// Package pdf extracts metadata and the document outline from PDF files.
// Content is not extracted; the original bytes travel with the document
// as a binary payload so a renderer can display the file directly.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/bookparse/internal/document"
)

// File is an open PDF. The underlying reader panics on malformed input,
// so every entry point that touches it runs behind a recover guard.
type File struct {
	reader  *pdflib.Reader
	payload []byte

	// pages maps a structural page fingerprint to its zero-based index
	// in page-tree order. Destination arrays reference pages by object,
	// and the reader resolves references transparently, so the
	// fingerprint is the only way back to a page number.
	pages map[string]int
}

// Open parses the given bytes as a PDF. The data is copied, so the
// caller may reuse its buffer. Malformed input yields ErrPDFParse.
func Open(data []byte) (f *File, err error) {
	defer func() {
		if r := recover(); r != nil {
			f = nil
			err = fmt.Errorf("%w: %v", document.ErrPDFParse, r)
		}
	}()

	payload := make([]byte, len(data))
	copy(payload, data)

	reader, err := pdflib.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrPDFParse, err)
	}

	f = &File{
		reader:  reader,
		payload: payload,
		pages:   make(map[string]int),
	}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		key := fingerprint(page.V)
		if _, taken := f.pages[key]; !taken {
			f.pages[key] = i - 1
		}
	}
	return f, nil
}

// Payload returns the original file bytes.
func (f *File) Payload() []byte {
	return f.payload
}

// Metadata returns the document information dictionary's title and
// author, empty when absent.
func (f *File) Metadata() (title, author string) {
	defer func() {
		recover()
	}()

	info := f.reader.Trailer().Key("Info")
	if info.IsNull() {
		return "", ""
	}
	title = strings.TrimSpace(info.Key("Title").Text())
	author = strings.TrimSpace(info.Key("Author").Text())
	return title, author
}

// Parse opens data as a PDF and assembles a normalized document.
// filename supplies the title fallback when the information dictionary
// has none.
func Parse(data []byte, filename string) (*document.Document, error) {
	f, err := Open(data)
	if err != nil {
		return nil, err
	}

	title, author := f.Metadata()
	if title == "" {
		title = document.TitleFromFilename(filename)
	}
	if author == "" {
		author = document.UnknownAuthor
	}

	return &document.Document{
		Title:   title,
		Author:  author,
		Type:    document.TypePDF,
		Content: document.PDFContentPlaceholder,
		Payload: f.Payload(),
		TOC:     f.Outline(),
	}, nil
}
