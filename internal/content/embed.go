package content

import (
	"embed"
	"io/fs"
)

//go:embed data/*.yaml
var dataFS embed.FS

// EmbeddedFS returns the built-in content files.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		panic("content: failed to create sub filesystem: " + err.Error())
	}
	return sub
}

// Default loads the built-in catalog.
func Default() (*Catalog, error) {
	return Load(EmbeddedFS())
}

// MustDefault is Default for callers that treat broken built-in content as fatal.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic("content: invalid embedded catalog: " + err.Error())
	}
	return c
}
