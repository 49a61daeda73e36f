package parser

import (
	"bytes"
	"io"

	"github.com/dgallion1/bookparse/internal/document"
)

// TextParser handles plain text files.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// NUL bytes mean this is not text at all.
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, document.ErrUnsupportedFormat
	}

	return &document.Document{
		Title:   document.TitleFromFilename(filename),
		Author:  document.UnknownAuthor,
		Type:    document.TypeText,
		Content: string(data),
	}, nil
}
