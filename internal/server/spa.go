package server

import (
	"io/fs"
	"net/http"
	"strings"
)

// backendPrefixes never fall back to the dashboard; an unknown API or stream
// path stays a 404 instead of returning index.html with status 200.
var backendPrefixes = []string{"/api/", "/ws/"}

// spaFileServer serves the dashboard bundle from assets. Other paths that do
// not name a real file get index.html so client-side routes resolve.
func spaFileServer(assets fs.FS) http.Handler {
	fileServer := http.FileServerFS(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range backendPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				http.NotFound(w, r)
				return
			}
		}

		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		if _, err := fs.Stat(assets, path); err != nil {
			r.URL.Path = "/"
		}

		fileServer.ServeHTTP(w, r)
	})
}
