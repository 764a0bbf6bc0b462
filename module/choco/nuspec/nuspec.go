// Package nuspec reads and rewrites the version element of a Chocolatey
// package manifest. Rewrites go through the parsed XML tree when the
// document is well formed and fall back to a pattern rewrite on the raw
// bytes when it is not.
package nuspec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
)

// DefaultNamespace is the nuspec schema namespace assumed when a
// manifest declares none.
const DefaultNamespace = "http://schemas.microsoft.com/packaging/2015/06/nuspec.xsd"

var (
	metadataOpenRe  = regexp.MustCompile(`(?i)<(?:[\w.-]+:)?metadata(?:\s[^>]*)?>`)
	metadataCloseRe = regexp.MustCompile(`(?i)</(?:[\w.-]+:)?metadata\s*>`)
	versionRe       = regexp.MustCompile(`(?is)(<(?:[\w.-]+:)?version(?:\s[^>]*)?>)(.*?)(</(?:[\w.-]+:)?version\s*>)`)
)

// Version returns the trimmed text of the metadata/version element, or
// false when no version element can be located.
func Version(data []byte) (string, bool) {
	if doc, err := parseManifest(data); err == nil {
		if el := versionElement(doc); el != nil {
			return strings.TrimSpace(el.Text()), true
		}
	}
	start, end, ok := versionSpan(data)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(string(data[start:end])), true
}

// SetVersion replaces the text of the metadata/version element with
// version. The document is updated structurally when it parses; when
// parsing fails, or the element cannot be reached through the tree, the
// rewrite degrades to a byte-level pattern replacement that leaves
// everything outside the element text untouched. The returned flag
// reports whether a version element was located at all.
func SetVersion(data []byte, version string) ([]byte, bool) {
	doc, err := parseManifest(data)
	if err != nil {
		log.Debug().Err(err).Msg("Manifest did not parse as XML, trying pattern rewrite")
	} else if el := versionElement(doc); el != nil {
		el.SetText(version)
		out, werr := doc.WriteToBytes()
		if werr == nil {
			return out, true
		}
		log.Debug().Err(werr).Msg("Manifest serialization failed, trying pattern rewrite")
	}
	return setVersionPattern(data, version)
}

// parseManifest parses data and checks that it carries a nuspec package
// root. The charset reader handles manifests that declare a non-UTF-8
// encoding; output is always written back as UTF-8.
func parseManifest(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	if root.Tag != "package" {
		return nil, fmt.Errorf("root element is %q, not package", root.Tag)
	}

	if ns := root.SelectAttrValue("xmlns", ""); ns == "" {
		log.Debug().Str("namespace", DefaultNamespace).Msg("Manifest declares no namespace, assuming the packaging default")
	} else if ns != DefaultNamespace {
		log.Debug().Str("namespace", ns).Msg("Manifest declares a non-default namespace")
	}
	return doc, nil
}

func versionElement(doc *etree.Document) *etree.Element {
	metadata := findChild(doc.Root(), "metadata")
	if metadata == nil {
		return nil
	}
	return findChild(metadata, "version")
}

// findChild returns the first child element with the given local tag,
// whatever namespace prefix it carries.
func findChild(parent *etree.Element, tag string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// versionSpan locates the inner text of the first version element inside
// a metadata block and returns its byte offsets in data.
func versionSpan(data []byte) (start, end int, ok bool) {
	open := metadataOpenRe.FindIndex(data)
	if open == nil {
		return 0, 0, false
	}

	block := data[open[1]:]
	if closing := metadataCloseRe.FindIndex(block); closing != nil {
		block = block[:closing[0]]
	}

	m := versionRe.FindSubmatchIndex(block)
	if m == nil {
		return 0, 0, false
	}
	return open[1] + m[4], open[1] + m[5], true
}

// setVersionPattern splices version over the located element text,
// leaving every byte outside that span as it was.
func setVersionPattern(data []byte, version string) ([]byte, bool) {
	start, end, ok := versionSpan(data)
	if !ok {
		return data, false
	}

	out := make([]byte, 0, len(data)+len(version))
	out = append(out, data[:start]...)
	out = append(out, version...)
	out = append(out, data[end:]...)
	return out, true
}
