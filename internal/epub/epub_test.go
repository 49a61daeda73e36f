package epub

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/bookparse/internal/document"
)

func TestParse_FullBook(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{"mimetype", []byte("application/epub+zip")},
		{"META-INF/container.xml", []byte(containerXML)},
		{"OEBPS/content.opf", opfDoc(
			`<dc:title>The Time Machine</dc:title><dc:creator>H. G. Wells</dc:creator><meta name="cover" content="cov"/>`,
			`<item id="cov" href="cover.png" media-type="image/png"/>`+
				`<item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>`+
				`<item id="c1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>`+
				`<item id="c2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>`+
				`<item id="fig" href="images/fig.png" media-type="image/png"/>`,
			` toc="ncx"`,
			`<itemref idref="c1"/><itemref idref="c2"/>`,
		)},
		{"OEBPS/cover.png", tinyPNG},
		{"OEBPS/toc.ncx", []byte(ncxDoc)},
		{"OEBPS/text/ch1.xhtml", chapterXHTML(`<h1 id="start">One</h1><img src="../images/fig.png"/>`)},
		{"OEBPS/text/ch2.xhtml", chapterXHTML(`<h1>Two</h1>`)},
		{"OEBPS/images/fig.png", tinyPNG},
	})

	doc, err := Parse(data, "timemachine.epub", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Type != document.TypeEPUB {
		t.Errorf("expected type %q, got %q", document.TypeEPUB, doc.Type)
	}
	if doc.Title != "The Time Machine" {
		t.Errorf("expected metadata title, got %q", doc.Title)
	}
	if doc.Author != "H. G. Wells" {
		t.Errorf("expected metadata author, got %q", doc.Author)
	}

	// Chapters in spine order, wrapped and inlined.
	onePos := strings.Index(doc.Content, `<div id="ch1.xhtml"`)
	twoPos := strings.Index(doc.Content, `<div id="ch2.xhtml"`)
	if onePos < 0 || twoPos < 0 || twoPos < onePos {
		t.Fatalf("chapters missing or out of order in content")
	}
	if !strings.Contains(doc.Content, "data:image/png;base64,") {
		t.Errorf("expected inlined chapter image")
	}

	if !strings.HasPrefix(doc.Cover, "data:image/png;base64,") {
		t.Errorf("expected cover data URI, got %q", doc.Cover)
	}

	if len(doc.TOC) != 2 || len(doc.TOC[0].Children) != 2 {
		t.Fatalf("expected NCX-derived outline, got %+v", doc.TOC)
	}
	if doc.TOC[0].Children[0].Anchor != "ch1.xhtml#start" {
		t.Errorf("expected file-name anchor, got %q", doc.TOC[0].Children[0].Anchor)
	}

	if doc.Payload != nil {
		t.Errorf("archives carry no binary payload, got %d bytes", len(doc.Payload))
	}
}

func TestParse_SparseBook(t *testing.T) {
	// No metadata, no cover, no NCX, no nav. Still a valid document.
	data := buildZip(t, []zipEntry{
		{"META-INF/container.xml", []byte(containerXML)},
		{"OEBPS/content.opf", opfDoc(
			``,
			`<item id="c1" href="ch1.xhtml" media-type="application/xhtml+xml"/>`,
			``,
			`<itemref idref="c1"/>`,
		)},
		{"OEBPS/ch1.xhtml", chapterXHTML(`<p>lonely chapter</p>`)},
	})

	doc, err := Parse(data, "uploads/bare.epub", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "bare" {
		t.Errorf("expected filename title, got %q", doc.Title)
	}
	if doc.Author != document.UnknownAuthor {
		t.Errorf("expected %q, got %q", document.UnknownAuthor, doc.Author)
	}
	if doc.Cover != "" {
		t.Errorf("expected no cover, got %q", doc.Cover)
	}
	if doc.TOC != nil {
		t.Errorf("expected no outline, got %+v", doc.TOC)
	}
	if !strings.Contains(doc.Content, "lonely chapter") {
		t.Errorf("expected chapter content, got %q", doc.Content)
	}
}

func TestParse_NotAZip(t *testing.T) {
	_, err := Parse([]byte("definitely not a zip"), "x.epub", testLogger())
	if !errors.Is(err, document.ErrInvalidArchive) {
		t.Fatalf("expected ErrInvalidArchive, got %v", err)
	}
}

func TestParse_ZipWithoutContainer(t *testing.T) {
	data := buildZip(t, []zipEntry{{"readme.txt", []byte("hello")}})
	_, err := Parse(data, "x.epub", testLogger())
	if !errors.Is(err, document.ErrInvalidArchive) {
		t.Fatalf("expected ErrInvalidArchive, got %v", err)
	}
}
