package routes

import (
	"net/http"
	"os"
	"path/filepath"
)

// StaticFallback serves the frontend build. Real files are served as-is;
// any other path gets index.html so client-side routes survive a page
// reload instead of hitting a 404.
func StaticFallback(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	}
}
