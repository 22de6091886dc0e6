package viewgen

import (
	"embed"
	"io/fs"
)

//go:embed assets/viewgen.css
var embeddedAssets embed.FS

// StylesheetName is the default stylesheet key resolved through the theme's
// asset URL.
const StylesheetName = "viewgen.css"

// AssetsFS exposes the embedded stylesheet so applications can serve it
// without a build step.
//
// Typical mount:
//
//	mux.Handle("/static/viewgen.css",
//	  http.StripPrefix("/static/",
//	    http.FileServerFS(viewgen.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}
