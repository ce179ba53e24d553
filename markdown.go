package obras2pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// markdownRenderer converts free text from the spreadsheets to HTML fragments.
// Raw HTML in the source is dropped.
type markdownRenderer struct {
	md goldmark.Markdown
}

func newMarkdownRenderer() *markdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // tables, strikethrough, autolinks
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(), // cell line breaks are meaningful
			html.WithXHTML(),
		),
	)
	return &markdownRenderer{md: md}
}

// Render returns the HTML for src. Blank input renders as "--".
func (m *markdownRenderer) Render(src string) (template.HTML, error) {
	if FormatText(src) == EmptyValue {
		return template.HTML(EmptyValue), nil
	}
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	// #nosec G203 -- goldmark output without WithUnsafe escapes raw HTML
	return template.HTML(buf.String()), nil
}
