package dashboard

import (
	"io/fs"
	"net/http"
	"strings"
)

// Routes are the client-side pages served by index.html.
var Routes = []string{
	"/",
	"/devices",
	"/incidents",
	"/traffic",
	"/performance",
	"/history",
	"/settings",
	"/integration-plan",
}

// Handler returns an http.Handler that serves the built SPA. Static files are
// served as-is, known page routes get index.html, and anything else gets the
// 404 page with a 404 status.
func Handler() http.Handler {
	if distFS == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "dashboard not available (dev mode)", http.StatusNotFound)
		})
	}

	subFS, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("dashboard: failed to create sub filesystem: " + err.Error())
	}

	fileServer := http.FileServer(http.FS(subFS))
	pages := make(map[string]bool, len(Routes))
	for _, r := range Routes {
		pages[r] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Don't serve SPA for API routes, health endpoints, or metrics
		if strings.HasPrefix(r.URL.Path, "/api/") ||
			r.URL.Path == "/healthz" ||
			r.URL.Path == "/readyz" ||
			r.URL.Path == "/metrics" {
			http.NotFound(w, r)
			return
		}

		path := strings.TrimSuffix(r.URL.Path, "/")
		if path == "" {
			path = "/"
		}
		if pages[path] {
			serveFile(w, subFS, "index.html", http.StatusOK)
			return
		}

		name := strings.TrimPrefix(r.URL.Path, "/")
		if st, err := fs.Stat(subFS, name); err == nil && !st.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		serveFile(w, subFS, "404.html", http.StatusNotFound)
	})
}

func serveFile(w http.ResponseWriter, fsys fs.FS, name string, status int) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
