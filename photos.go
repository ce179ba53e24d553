package obras2pdf

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alnah/go-obras2pdf/internal/htmlpath"
)

var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// PhotoSet holds the image URLs for one report.
type PhotoSet struct {
	Principal template.URL
	Extras    []template.URL
}

// FindPhotos lists the photos of a project in dir, sorted by name.
// A file belongs to the project when its base name (without extension) equals
// the ID or starts with the ID followed by "_", "-" or " ", ignoring case.
// A missing directory yields no photos.
func FindPhotos(dir, id string) ([]string, error) {
	if dir == "" || id == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading photos directory: %w", err)
	}

	want := strings.ToLower(id)
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !photoExtensions[ext] {
			continue
		}
		if photoMatches(strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name))), want) {
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

func photoMatches(base, id string) bool {
	if base == id {
		return true
	}
	rest, ok := strings.CutPrefix(base, id)
	return ok && rest != "" && strings.ContainsRune("_- ", rune(rest[0]))
}

// NewPhotoSet builds the URLs for the given photo paths. With no photos the
// placeholder becomes the principal image.
func NewPhotoSet(paths []string, placeholder template.URL) (PhotoSet, error) {
	if len(paths) == 0 {
		return PhotoSet{Principal: placeholder}, nil
	}
	urls := make([]template.URL, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return PhotoSet{}, fmt.Errorf("resolving %s: %w", p, err)
		}
		// #nosec G203 -- file URL built from a local path
		urls = append(urls, template.URL(htmlpath.FileURL(abs)))
	}
	return PhotoSet{Principal: urls[0], Extras: urls[1:]}, nil
}
