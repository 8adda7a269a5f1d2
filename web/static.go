package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticEmbed embed.FS

// staticFS is rooted at the static directory so URL paths map directly
// to file names.
var staticFS = must(fs.Sub(staticEmbed, "static"))

func must(f fs.FS, err error) fs.FS {
	if err != nil {
		panic(err)
	}
	return f
}
