package assets

import (
	"encoding/base64"
	"path/filepath"
	"strings"
)

// Names of the built-in assets.
const (
	DefaultTemplateName = "informe"
	DefaultStyleName    = "informe"
	ImageBanner         = "banner"
	ImageFooter         = "footer"
	ImageIcon           = "doble_flecha"
	ImagePlaceholder    = "placeholder"
	FontRegular         = "EncodeSans-Regular"
	FontBold            = "EncodeSans-Bold"
)

// AssetLoader defines the contract for loading report assets.
// Implementations may load from embedded assets, filesystem, object storage, etc.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML template by name (without .html extension).
	LoadTemplate(name string) (*Template, error)

	// LoadImage loads an image by name, trying known extensions in order.
	LoadImage(name string) (*Binary, error)

	// LoadFont loads a font file by name, trying known extensions in order.
	LoadFont(name string) (*Binary, error)
}

// Template is the source of an HTML template.
type Template struct {
	Name    string
	Content string
	// Dir is the directory holding the template on disk, used to resolve
	// relative references. Empty for embedded templates.
	Dir string
}

// Binary is a loaded image or font.
type Binary struct {
	Name string
	MIME string
	Data []byte
}

// DataURI encodes the asset as a base64 data URI, so rendered documents do
// not depend on file access from the converter.
func (b *Binary) DataURI() string {
	return "data:" + b.MIME + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

var imageExtensions = []string{".svg", ".png", ".jpg", ".jpeg", ".webp", ".gif"}

var fontExtensions = []string{".woff2", ".woff", ".ttf", ".otf"}

var mimeTypes = map[string]string{
	".svg":   "image/svg+xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".webp":  "image/webp",
	".gif":   "image/gif",
	".woff2": "font/woff2",
	".woff":  "font/woff",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
}

// MIMEType returns the media type for a file name based on its extension.
// Unknown extensions map to application/octet-stream.
func MIMEType(name string) string {
	if m, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return m
	}
	return "application/octet-stream"
}
