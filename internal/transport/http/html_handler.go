package http

import (
	"io/fs"
	"log/slog"
	"net/http"
)

// HTMLHandler serves the embedded dashboard page and its assets.
type HTMLHandler struct {
	frontend fs.FS
	logger   *slog.Logger
}

// NewHTMLHandler creates the handler over the embedded frontend filesystem.
func NewHTMLHandler(frontend fs.FS, logger *slog.Logger) *HTMLHandler {
	return &HTMLHandler{
		frontend: frontend,
		logger:   logger.With(slog.String("component", "html.handler")),
	}
}

// ServeHTTP serves static assets, falling back to index.html so the page
// owns any unknown path.
func (h *HTMLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	if _, err := fs.Stat(h.frontend, path[1:]); err != nil {
		r2 := new(http.Request)
		*r2 = *r
		r2.URL.Path = "/index.html"
		http.FileServer(http.FS(h.frontend)).ServeHTTP(w, r2)
		return
	}

	http.FileServer(http.FS(h.frontend)).ServeHTTP(w, r)
}
