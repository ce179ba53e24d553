package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

//go:embed styles/* templates/* images/*
var embedded embed.FS

// EmbeddedLoader loads the built-in report assets.
type EmbeddedLoader struct {
	fsys fs.FS
}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{fsys: embedded}
}

// LoadStyle loads a CSS style from embedded assets by name.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := fs.ReadFile(e.fsys, "styles/"+name+".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return string(content), nil
}

// LoadTemplate loads an HTML template from embedded assets by name.
func (e *EmbeddedLoader) LoadTemplate(name string) (*Template, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	content, err := fs.ReadFile(e.fsys, "templates/"+name+".html")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return &Template{Name: name, Content: string(content)}, nil
}

// LoadImage loads an image from embedded assets by name.
func (e *EmbeddedLoader) LoadImage(name string) (*Binary, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	for _, ext := range imageExtensions {
		data, err := fs.ReadFile(e.fsys, "images/"+name+ext)
		if err == nil {
			return &Binary{Name: name + ext, MIME: MIMEType(ext), Data: data}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrImageNotFound, name)
}

// LoadFont always fails: fonts are not embedded.
func (e *EmbeddedLoader) LoadFont(name string) (*Binary, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %q", ErrFontNotFound, name)
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
