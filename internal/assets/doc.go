// Package assets provides the report template, its stylesheet, and the static
// images and fonts it references.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in report)
//	    ├── FilesystemLoader  - loads from a custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// Fonts are never embedded: they are only available when a custom directory
// provides them, and the stylesheet falls back to generic families otherwise.
//
// # Directory Structure
//
//	{basePath}/
//	├── templates/{name}.html
//	├── styles/{name}.css
//	├── images/{name}.{svg,png,jpg,jpeg,webp,gif}
//	└── fonts/{name}.{ttf,otf,woff,woff2}
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
