package nuspec

import (
	"strings"
	"testing"
)

const wellFormed = `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://schemas.microsoft.com/packaging/2015/06/nuspec.xsd">
  <metadata>
    <id>unifiidentity</id>
    <version>1.0.0</version>
    <title>UniFi Identity</title>
    <authors>Ubiquiti</authors>
    <description>UniFi Identity endpoint agent.</description>
  </metadata>
</package>
`

func TestSetVersionStructural(t *testing.T) {
	out, found := SetVersion([]byte(wellFormed), "2.3.4.5")
	if !found {
		t.Fatal("SetVersion() found = false, want true")
	}

	s := string(out)
	if !strings.Contains(s, "<version>2.3.4.5</version>") {
		t.Errorf("output missing new version element:\n%s", s)
	}
	if strings.Contains(s, "1.0.0") {
		t.Error("old version still present in output")
	}
	if !strings.Contains(s, "<id>unifiidentity</id>") {
		t.Error("unrelated metadata element lost")
	}
	if !strings.Contains(s, `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Error("XML declaration lost")
	}

	got, ok := Version(out)
	if !ok || got != "2.3.4.5" {
		t.Errorf("Version() after rewrite = %q, %v; want %q, true", got, ok, "2.3.4.5")
	}
}

func TestSetVersionNoNamespace(t *testing.T) {
	text := "<package>\n  <metadata>\n    <id>demo</id>\n    <version>0.1.0</version>\n  </metadata>\n</package>\n"

	out, found := SetVersion([]byte(text), "0.2.0")
	if !found {
		t.Fatal("SetVersion() found = false, want true")
	}
	if !strings.Contains(string(out), "<version>0.2.0</version>") {
		t.Errorf("output missing new version element:\n%s", out)
	}
}

func TestSetVersionPrefixedElements(t *testing.T) {
	text := `<?xml version="1.0"?>
<p:package xmlns:p="http://schemas.microsoft.com/packaging/2015/06/nuspec.xsd">
  <p:metadata>
    <p:id>demo</p:id>
    <p:version>0.9.1</p:version>
  </p:metadata>
</p:package>
`

	out, found := SetVersion([]byte(text), "3.0.0")
	if !found {
		t.Fatal("SetVersion() found = false, want true")
	}
	if !strings.Contains(string(out), "<p:version>3.0.0</p:version>") {
		t.Errorf("output missing new prefixed version element:\n%s", out)
	}
}

func TestSetVersionPatternFallback(t *testing.T) {
	// Truncated document, never parses. Everything outside the version
	// text must survive byte for byte, line endings included.
	prefix := "<package>\r\n  <metadata>\r\n    <id>demo</id>\r\n    <version>"
	suffix := "</version>\r\n  </metadata>\r\n"
	in := prefix + "1.0.0" + suffix

	out, found := SetVersion([]byte(in), "2.0.0")
	if !found {
		t.Fatal("SetVersion() found = false, want true")
	}
	if want := prefix + "2.0.0" + suffix; string(out) != want {
		t.Errorf("SetVersion() = %q, want %q", out, want)
	}
}

func TestSetVersionCapitalizedTagUsesPattern(t *testing.T) {
	// Parses fine, but the capitalized tag is invisible to the tree
	// lookup. The pattern path picks it up and keeps the markup intact.
	in := "<package>\n  <metadata>\n    <Version>1.2.3</Version>\n  </metadata>\n</package>\n"

	out, found := SetVersion([]byte(in), "4.5.6")
	if !found {
		t.Fatal("SetVersion() found = false, want true")
	}
	if want := "<package>\n  <metadata>\n    <Version>4.5.6</Version>\n  </metadata>\n</package>\n"; string(out) != want {
		t.Errorf("SetVersion() = %q, want %q", out, want)
	}
}

func TestSetVersionSelfClosingElement(t *testing.T) {
	text := "<package>\n  <metadata>\n    <version/>\n  </metadata>\n</package>\n"

	out, found := SetVersion([]byte(text), "5.0.0")
	if !found {
		t.Fatal("SetVersion() found = false, want true")
	}
	if !strings.Contains(string(out), "<version>5.0.0</version>") {
		t.Errorf("output missing populated version element:\n%s", out)
	}
}

func TestSetVersionNotFound(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "no version element",
			text: "<package>\n  <metadata>\n    <id>demo</id>\n  </metadata>\n</package>\n",
		},
		{
			name: "no metadata element",
			text: "<package>\n  <files>\n    <file src=\"tools\" />\n  </files>\n</package>\n",
		},
		{
			name: "self closing version in truncated document",
			text: "<package>\n  <metadata>\n    <version/>\n  </metadata>\n",
		},
		{
			name: "empty document",
			text: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, found := SetVersion([]byte(tt.text), "9.9.9")
			if found {
				t.Fatal("SetVersion() found = true, want false")
			}
			if string(out) != tt.text {
				t.Errorf("SetVersion() modified input: %q, want %q", out, tt.text)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		want      string
		wantFound bool
	}{
		{
			name:      "well formed",
			text:      wellFormed,
			want:      "1.0.0",
			wantFound: true,
		},
		{
			name:      "padded element text",
			text:      "<package>\n  <metadata>\n    <version>\n      1.0.0\n    </version>\n  </metadata>\n</package>\n",
			want:      "1.0.0",
			wantFound: true,
		},
		{
			name:      "truncated document read through pattern",
			text:      "<package>\n  <metadata>\n    <version> 2.2.2 </version>\n  </metadata>\n",
			want:      "2.2.2",
			wantFound: true,
		},
		{
			name:      "no version element",
			text:      "<package>\n  <metadata>\n    <id>demo</id>\n  </metadata>\n</package>\n",
			want:      "",
			wantFound: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Version([]byte(tt.text))
			if found != tt.wantFound {
				t.Fatalf("Version() found = %v, want %v", found, tt.wantFound)
			}
			if got != tt.want {
				t.Errorf("Version() = %q, want %q", got, tt.want)
			}
		})
	}
}
