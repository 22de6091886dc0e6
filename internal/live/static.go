package live

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/live.js
var staticFiles embed.FS

// ScriptPath is where ScriptHandler expects to be mounted.
const ScriptPath = "/static/live.js"

// ScriptHandler serves the browser client of the live feed under /static/.
func ScriptHandler() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
