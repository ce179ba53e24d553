package obras2pdf

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alnah/go-obras2pdf/internal/assets"
	"github.com/alnah/go-obras2pdf/internal/dateutil"
	"github.com/alnah/go-obras2pdf/internal/htmlpath"
)

// DefaultProgram is printed as the report title when none is configured.
const DefaultProgram = "Programa COMPLETAR"

// StaticAssets are the shared, pre-encoded assets of every report.
type StaticAssets struct {
	CSS       template.CSS
	FontFaces template.CSS
	Banner    template.URL
	Footer    template.URL
	Icon      template.URL
}

// RenderContext is the data bound into the report template for one record.
type RenderContext struct {
	Record           ProjectRecord
	ShortDescription string
	Program          string
	ReportDate       string
	Photos           PhotoSet
	Assets           StaticAssets
}

// RendererConfig configures NewRenderer.
type RendererConfig struct {
	Assets       assets.AssetLoader // nil uses the embedded assets
	TemplateName string             // default "informe"
	StyleName    string             // default "informe"
	PhotosDir    string
	Program      string
	ReportDate   string    // "auto", "auto:FORMAT" or a literal
	Now          time.Time // zero uses the current time
}

// Renderer binds records into the HTML report template.
type Renderer struct {
	tmpl        *template.Template
	dir         string // template directory for relative references, empty if embedded
	static      StaticAssets
	placeholder template.URL
	photosDir   string
	program     string
	reportDate  string
}

// NewRenderer loads the template, style, images and fonts once.
// Returns ErrTemplate if the template is missing or does not parse.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	loader := cfg.Assets
	if loader == nil {
		loader = assets.NewEmbeddedLoader()
	}

	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	reportDate, err := dateutil.ResolveDate(orDefault(cfg.ReportDate, "auto"), now)
	if err != nil {
		return nil, fmt.Errorf("report date: %w", err)
	}

	src, err := loader.LoadTemplate(orDefault(cfg.TemplateName, assets.DefaultTemplateName))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	md := newMarkdownRenderer()
	tmpl, err := template.New(src.Name).Funcs(templateFuncs(md)).Parse(src.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrTemplate, src.Name, err)
	}

	static, placeholder, err := loadStaticAssets(loader, orDefault(cfg.StyleName, assets.DefaultStyleName))
	if err != nil {
		return nil, err
	}

	return &Renderer{
		tmpl:        tmpl,
		dir:         src.Dir,
		static:      static,
		placeholder: placeholder,
		photosDir:   cfg.PhotosDir,
		program:     orDefault(cfg.Program, DefaultProgram),
		reportDate:  reportDate,
	}, nil
}

// ReportDate returns the resolved date printed on every report.
func (r *Renderer) ReportDate() string {
	return r.reportDate
}

// Context builds the template data for rec.
func (r *Renderer) Context(rec ProjectRecord) (*RenderContext, error) {
	paths, err := FindPhotos(r.photosDir, rec.ID)
	if err != nil {
		return nil, err
	}
	photos, err := NewPhotoSet(paths, r.placeholder)
	if err != nil {
		return nil, err
	}
	return &RenderContext{
		Record:           rec,
		ShortDescription: ShortDescription(rec.Description),
		Program:          r.program,
		ReportDate:       r.reportDate,
		Photos:           photos,
		Assets:           r.static,
	}, nil
}

// Render returns the complete HTML document for rec.
// Returns ErrTemplate when the template references data the context does not
// define or a template function fails.
func (r *Renderer) Render(rec ProjectRecord) (string, error) {
	data, err := r.Context(rec)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	out := buf.String()
	if r.dir != "" {
		out, err = htmlpath.RewriteRelative(out, r.dir)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTemplate, err)
		}
	}
	return out, nil
}

func loadStaticAssets(loader assets.AssetLoader, styleName string) (StaticAssets, template.URL, error) {
	var s StaticAssets

	css, err := loader.LoadStyle(styleName)
	if err != nil {
		return s, "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	// #nosec G203 -- stylesheet comes from embedded or operator-provided assets
	s.CSS = template.CSS(css)

	images := []struct {
		name string
		dst  *template.URL
	}{
		{assets.ImageBanner, &s.Banner},
		{assets.ImageFooter, &s.Footer},
		{assets.ImageIcon, &s.Icon},
	}
	for _, img := range images {
		b, err := loader.LoadImage(img.name)
		if err != nil {
			return s, "", fmt.Errorf("%w: %v", ErrTemplate, err)
		}
		// #nosec G203 -- data URI of a loaded asset
		*img.dst = template.URL(b.DataURI())
	}

	ph, err := loader.LoadImage(assets.ImagePlaceholder)
	if err != nil {
		return s, "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	faces, err := fontFaces(loader)
	if err != nil {
		return s, "", err
	}
	s.FontFaces = faces

	// #nosec G203 -- data URI of a loaded asset
	return s, template.URL(ph.DataURI()), nil
}

// fontFaces declares the report fonts that are available. Missing fonts are
// skipped and the stylesheet fallbacks apply.
func fontFaces(loader assets.AssetLoader) (template.CSS, error) {
	fonts := []struct {
		name   string
		weight int
	}{
		{assets.FontRegular, 400},
		{assets.FontBold, 700},
	}

	var b strings.Builder
	for _, f := range fonts {
		font, err := loader.LoadFont(f.name)
		if errors.Is(err, assets.ErrFontNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTemplate, err)
		}
		fmt.Fprintf(&b, "@font-face { font-family: \"Encode Sans\"; font-weight: %d; src: url(%q); }\n", f.weight, font.DataURI())
	}
	// #nosec G203 -- generated from loaded font data
	return template.CSS(b.String()), nil
}

func templateFuncs(md *markdownRenderer) template.FuncMap {
	return template.FuncMap{
		"text":     FormatText,
		"money":    FormatMoney,
		"moneyInt": FormatMoneyInt,
		"number":   FormatNumber,
		"percent":  FormatPercent,
		"date":     FormatDate,
		"chunk":    chunk,
		"barWidth": barWidth,
		"markdown": md.Render,
		"split":    splitCodes,
		"groups":   groups,
		"join":     strings.Join,
	}
}

// chunk breaks long unspaced values (file numbers, codes) into lines of size
// runes so they wrap inside table cells.
func chunk(s string, size int) template.HTML {
	s = strings.TrimSpace(s)
	if s == "" {
		return template.HTML(EmptyValue)
	}
	if size <= 0 || utf8.RuneCountInString(s) <= size {
		return template.HTML(template.HTMLEscapeString(s))
	}

	runes := []rune(s)
	parts := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		parts = append(parts, template.HTMLEscapeString(string(runes[i:end])))
	}
	// #nosec G203 -- every part is escaped
	return template.HTML(strings.Join(parts, "<br>"))
}

// barWidth returns a progress value as a CSS width percentage.
func barWidth(v *float64) string {
	if v == nil {
		return "0"
	}
	return strconv.FormatFloat(clamp(*v, 0, 100), 'f', 2, 64)
}

// splitCodes splits a list of codes separated by commas, semicolons or new lines.
func splitCodes(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" && f != EmptyValue {
			out = append(out, f)
		}
	}
	return out
}

// groups splits any slice into rows of n elements.
func groups(list any, n int) ([][]any, error) {
	if list == nil {
		return nil, nil
	}
	v := reflect.ValueOf(list)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("groups: expected a list, got %T", list)
	}
	if n <= 0 {
		return nil, fmt.Errorf("groups: size must be positive, got %d", n)
	}

	var out [][]any
	for i := 0; i < v.Len(); i += n {
		end := min(i+n, v.Len())
		row := make([]any, 0, end-i)
		for j := i; j < end; j++ {
			row = append(row, v.Index(j).Interface())
		}
		out = append(out, row)
	}
	return out, nil
}
