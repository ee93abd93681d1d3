package http

import (
	"net/http"
	"strconv"

	"github.com/goliatone/go-pagekit/internal/pages"
)

// DiagnosticsHeader carries the number of non-fatal section diagnostics.
const DiagnosticsHeader = "X-Pagekit-Diagnostics"

func (api *API) registerRenderRoutes(mux *http.ServeMux, base string) {
	mux.HandleFunc("GET "+joinPath(base, "{slug}"), api.handleRender)
}

func (api *API) handleRender(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil || api.dispatcher == nil {
		writeUnavailable(w)
		return
	}
	slug := r.PathValue("slug")
	doc, err := api.pages.Get(r.Context(), slug)
	if err != nil {
		writeError(w, err)
		return
	}
	rendered, err := pages.Render(r.Context(), api.dispatcher, doc)
	if err != nil {
		api.logger.Error("http.render_failed", "slug", slug, "error", err)
		writeError(w, err)
		return
	}
	if n := len(rendered.Diagnostics); n > 0 {
		api.logger.Warn("http.render_diagnostics", "slug", slug, "count", n)
	}
	writeHTML(w, http.StatusOK, rendered.HTML, len(rendered.Diagnostics))
}

func writeHTML(w http.ResponseWriter, status int, body []byte, diagnostics int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(DiagnosticsHeader, strconv.Itoa(diagnostics))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
