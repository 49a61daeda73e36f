package epub

import (
	"errors"
	"testing"

	"github.com/dgallion1/bookparse/internal/document"
)

func TestParsePackage_Metadata(t *testing.T) {
	ar := openTestArchive(t, []zipEntry{
		{"META-INF/container.xml", []byte(containerXML)},
		{"OEBPS/content.opf", opfDoc(
			`<dc:title>War and Peace</dc:title><dc:creator>Leo Tolstoy</dc:creator>`,
			`<item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>`,
			``,
			`<itemref idref="ch1"/>`,
		)},
	})

	p, err := parsePackage(ar, "upload.epub", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != "War and Peace" {
		t.Errorf("expected title %q, got %q", "War and Peace", p.Title)
	}
	if p.Author != "Leo Tolstoy" {
		t.Errorf("expected author %q, got %q", "Leo Tolstoy", p.Author)
	}
	if p.OPFPath != "OEBPS/content.opf" {
		t.Errorf("expected OPF path %q, got %q", "OEBPS/content.opf", p.OPFPath)
	}
	if len(p.Spine) != 1 || p.Spine[0].Item.Path != "OEBPS/ch1.xhtml" {
		t.Fatalf("expected one resolved spine entry, got %+v", p.Spine)
	}
}

func TestParsePackage_UnprefixedMetadata(t *testing.T) {
	// Some packagers emit metadata without the dc prefix; both forms
	// must resolve.
	ar := openTestArchive(t, []zipEntry{
		{"META-INF/container.xml", []byte(containerXML)},
		{"OEBPS/content.opf", []byte(`<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata><title>Walden</title><creator>Henry David Thoreau</creator></metadata>
  <manifest><item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/></manifest>
  <spine><itemref idref="ch1"/></spine>
</package>`)},
	})

	p, err := parsePackage(ar, "x.epub", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != "Walden" {
		t.Errorf("expected title %q, got %q", "Walden", p.Title)
	}
	if p.Author != "Henry David Thoreau" {
		t.Errorf("expected author %q, got %q", "Henry David Thoreau", p.Author)
	}
}

func TestParsePackage_MetadataDefaults(t *testing.T) {
	ar := openTestArchive(t, []zipEntry{
		{"META-INF/container.xml", []byte(containerXML)},
		{"OEBPS/content.opf", opfDoc(
			``,
			`<item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>`,
			``,
			`<itemref idref="ch1"/>`,
		)},
	})

	p, err := parsePackage(ar, "books/some novel.epub", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != "some novel" {
		t.Errorf("expected filename-derived title, got %q", p.Title)
	}
	if p.Author != document.UnknownAuthor {
		t.Errorf("expected %q, got %q", document.UnknownAuthor, p.Author)
	}
}

func TestParsePackage_MissingContainer(t *testing.T) {
	ar := openTestArchive(t, []zipEntry{
		{"mimetype", []byte("application/epub+zip")},
	})

	_, err := parsePackage(ar, "x.epub", testLogger())
	if !errors.Is(err, document.ErrInvalidArchive) {
		t.Fatalf("expected ErrInvalidArchive, got %v", err)
	}
}

func TestParsePackage_MissingOPF(t *testing.T) {
	ar := openTestArchive(t, []zipEntry{
		{"META-INF/container.xml", []byte(containerXML)},
	})

	_, err := parsePackage(ar, "x.epub", testLogger())
	if !errors.Is(err, document.ErrInvalidArchive) {
		t.Fatalf("expected ErrInvalidArchive, got %v", err)
	}
}

func TestParsePackage_UnresolvedSpineRefSkipped(t *testing.T) {
	ar := openTestArchive(t, []zipEntry{
		{"META-INF/container.xml", []byte(containerXML)},
		{"OEBPS/content.opf", opfDoc(
			`<dc:title>T</dc:title>`,
			`<item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>`,
			``,
			`<itemref idref="ghost"/><itemref idref="ch1"/>`,
		)},
	})

	p, err := parsePackage(ar, "x.epub", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Spine) != 1 || p.Spine[0].IDRef != "ch1" {
		t.Fatalf("expected the dangling itemref to be dropped, got %+v", p.Spine)
	}
}

func TestParsePackage_SpineTocAndMetaCover(t *testing.T) {
	ar := openTestArchive(t, []zipEntry{
		{"META-INF/container.xml", []byte(containerXML)},
		{"OEBPS/content.opf", opfDoc(
			`<dc:title>T</dc:title><meta name="cover" content="cover-img"/>`,
			`<item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>`+
				`<item id="cover-img" href="cover.jpg" media-type="image/jpeg"/>`+
				`<item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>`,
			` toc="ncx"`,
			`<itemref idref="ch1"/>`,
		)},
	})

	p, err := parsePackage(ar, "x.epub", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.NCXID != "ncx" {
		t.Errorf("expected NCX id %q, got %q", "ncx", p.NCXID)
	}
	if p.MetaCoverID != "cover-img" {
		t.Errorf("expected meta cover id %q, got %q", "cover-img", p.MetaCoverID)
	}
}

func TestArchive_CaseInsensitiveLookup(t *testing.T) {
	ar := openTestArchive(t, []zipEntry{
		{"OEBPS/Chapter1.xhtml", []byte("x")},
	})
	if !ar.Has("oebps/chapter1.xhtml") {
		t.Error("expected case-insensitive fallback lookup to succeed")
	}
	if ar.Has("oebps/chapter2.xhtml") {
		t.Error("expected missing entry to stay missing")
	}
}

func TestArchive_ReadEntryTextStripsBOM(t *testing.T) {
	ar := openTestArchive(t, []zipEntry{
		{"a.txt", []byte{0xEF, 0xBB, 0xBF, 'h', 'i'}},
	})
	got, err := ar.ReadEntryText("a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hi" {
		t.Errorf("expected %q, got %q", "hi", got)
	}
}
