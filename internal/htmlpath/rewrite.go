// Package htmlpath rewrites relative references in rendered HTML so that the
// converter, which loads the document from a temporary location, still finds
// files that sit next to a custom template.
package htmlpath

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// rewritable maps element names to the attribute holding a reference.
var rewritable = map[string]string{
	"img":  "src",
	"a":    "href",
	"link": "href",
}

// RewriteRelative converts relative img[src], link[href] and a[href] values to
// absolute file:// URLs resolved against baseDir. If baseDir is empty, the
// document is returned unchanged. References escaping baseDir are left as-is.
func RewriteRelative(document, baseDir string) (string, error) {
	if baseDir == "" {
		return document, nil
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", err
	}

	rewriteNode(doc, absBase)

	var buf strings.Builder
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func rewriteNode(n *html.Node, baseDir string) {
	if n.Type == html.ElementNode {
		if attr, ok := rewritable[n.Data]; ok {
			rewriteAttr(n, attr, baseDir)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, baseDir)
	}
}

func rewriteAttr(n *html.Node, attrName, baseDir string) {
	for i, attr := range n.Attr {
		if attr.Key != attrName || !IsRelative(attr.Val) {
			continue
		}

		absPath := filepath.Join(baseDir, attr.Val)
		if !isPathUnderDir(absPath, baseDir) {
			continue
		}
		n.Attr[i].Val = FileURL(absPath)
	}
}

// IsRelative reports whether a reference is a relative filesystem path.
// URLs with a scheme, protocol-relative URLs, anchors and absolute paths are not.
func IsRelative(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return false
	}
	if filepath.IsAbs(ref) {
		return false
	}
	for _, scheme := range []string{"http:", "https:", "file:", "data:", "mailto:"} {
		if strings.HasPrefix(strings.ToLower(ref), scheme) {
			return false
		}
	}
	return true
}

func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}

// FileURL converts an absolute path to a file:// URL.
// Handles both Unix and Windows paths.
func FileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // C:/x -> /C:/x
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
