package assets

import "errors"

// AssetResolver combines custom and embedded loaders with fallback logic.
// When a custom loader is configured, it tries custom first, then falls back
// to embedded if the asset is not found in the custom location.
type AssetResolver struct {
	custom   AssetLoader // nil if no custom path configured
	embedded AssetLoader
}

// NewAssetResolver creates an AssetResolver.
// If customBasePath is empty, only embedded assets are used.
// Returns error if customBasePath is set but invalid.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	resolver := &AssetResolver{
		embedded: NewEmbeddedLoader(),
	}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		resolver.custom = fsLoader
	}

	return resolver, nil
}

// LoadStyle loads a CSS style, trying the custom loader first if available.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	return withFallback(r, func(l AssetLoader) (string, error) { return l.LoadStyle(name) })
}

// LoadTemplate loads an HTML template, trying the custom loader first if available.
func (r *AssetResolver) LoadTemplate(name string) (*Template, error) {
	return withFallback(r, func(l AssetLoader) (*Template, error) { return l.LoadTemplate(name) })
}

// LoadImage loads an image, trying the custom loader first if available.
func (r *AssetResolver) LoadImage(name string) (*Binary, error) {
	return withFallback(r, func(l AssetLoader) (*Binary, error) { return l.LoadImage(name) })
}

// LoadFont loads a font, trying the custom loader first if available.
func (r *AssetResolver) LoadFont(name string) (*Binary, error) {
	return withFallback(r, func(l AssetLoader) (*Binary, error) { return l.LoadFont(name) })
}

// HasCustomLoader returns true if a custom asset loader is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

// withFallback implements the custom-first, fallback-to-embedded logic.
// Only "not found" errors fall back; validation and I/O errors are returned.
func withFallback[T any](r *AssetResolver, load func(AssetLoader) (T, error)) (T, error) {
	if r.custom == nil {
		return load(r.embedded)
	}

	v, err := load(r.custom)
	if err == nil || !IsNotFound(err) {
		return v, err
	}
	return load(r.embedded)
}

// IsNotFound reports whether err indicates a missing asset of any kind.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStyleNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrImageNotFound) ||
		errors.Is(err, ErrFontNotFound)
}

// Compile-time interface check.
var _ AssetLoader = (*AssetResolver)(nil)
