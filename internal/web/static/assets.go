// Package static provides embedded static assets for the portal UI.
package static

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
)

//go:embed index.html css/*.css js/*.js
var assetsFS embed.FS

// Handler returns an http.Handler that serves embedded static assets.
func Handler() http.Handler {
	sub, err := fs.Sub(assetsFS, ".")
	if err != nil {
		// Cannot happen with embed.FS and ".", but fail fast if it does.
		panic(fmt.Sprintf("static: failed to create sub-filesystem: %v", err))
	}
	return http.FileServer(http.FS(sub))
}

// Index returns the portal's single page.
func Index() []byte {
	data, err := assetsFS.ReadFile("index.html")
	if err != nil {
		panic(fmt.Sprintf("static: index.html not embedded: %v", err))
	}
	return data
}
