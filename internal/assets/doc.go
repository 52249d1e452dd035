// Package assets provides the stylesheet and HTML page templates of the site.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in theme)
//	    ├── FilesystemLoader  - loads from a custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// EmbeddedLoader provides the built-in "site" style and "default" template
// set compiled into the binary.
//
// FilesystemLoader lets a site override assets from a directory, with path
// traversal protection and symlink resolution.
//
// AssetResolver is the loader used by the page renderer. It tries the custom
// FilesystemLoader first and falls back to EmbeddedLoader when the asset is
// not found, so a site can override one template and keep the rest.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # stylesheets (e.g., site.css)
//	└── templates/
//	    └── {name}/
//	        ├── layout.html      # page shell: head, navbar, scripts
//	        ├── index.html       # post cards
//	        ├── post.html        # article page
//	        └── notfound.html    # 404 page
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
