package epub

import "testing"

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		base string
		ref  string
		want string
	}{
		{"OEBPS/content.opf", "ch1.xhtml", "OEBPS/ch1.xhtml"},
		{"OEBPS/content.opf", "text/ch1.xhtml", "OEBPS/text/ch1.xhtml"},
		{"OEBPS/text/ch1.xhtml", "../images/fig.png", "OEBPS/images/fig.png"},
		{"a/b/c.html", "../x", "a/x"},
		{"a/b/c.html", "./x", "a/b/x"},
		{"a/b/c.html", ".", "a/b"},
		{"a/b/c.html", "", "a/b"},
		{"content.opf", "ch1.xhtml", "ch1.xhtml"},
		// Pops past the root are ignored.
		{"content.opf", "../../ch1.xhtml", "ch1.xhtml"},
		{"a/b.opf", "../../../deep.xhtml", "deep.xhtml"},
		// Fragment and query suffixes are dropped.
		{"OEBPS/content.opf", "ch1.xhtml#sec2", "OEBPS/ch1.xhtml"},
		{"OEBPS/content.opf", "ch1.xhtml?v=1", "OEBPS/ch1.xhtml"},
		// Percent-encoding decodes.
		{"OEBPS/content.opf", "my%20chapter.xhtml", "OEBPS/my chapter.xhtml"},
		// Redundant separators collapse.
		{"OEBPS/content.opf", "text//ch1.xhtml", "OEBPS/text/ch1.xhtml"},
	}

	for _, tt := range tests {
		if got := resolveRelative(tt.base, tt.ref); got != tt.want {
			t.Errorf("resolveRelative(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
}

func TestAnchorTarget(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"ch1.xhtml", "ch1.xhtml"},
		{"text/ch1.xhtml", "ch1.xhtml"},
		{"text/ch1.xhtml#sec2", "ch1.xhtml#sec2"},
		{"../text/ch1.xhtml#sec2", "ch1.xhtml#sec2"},
		{"ch1.xhtml?v=2#sec2", "ch1.xhtml#sec2"},
		{"my%20chapter.xhtml", "my chapter.xhtml"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := anchorTarget(tt.ref); got != tt.want {
			t.Errorf("anchorTarget(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}
