package http

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-pagekit/internal/blocks"
)

type blockListResponse struct {
	Categories []string            `json:"categories"`
	Blocks     []blocks.Definition `json:"blocks"`
}

func (api *API) registerBlockRoutes(mux *http.ServeMux, base string) {
	root := joinPath(base, "blocks")
	mux.HandleFunc("GET "+root, api.handleBlockList)
	mux.HandleFunc("GET "+root+"/usage", api.handleBlockUsage)
	mux.HandleFunc("GET "+root+"/{id}/source", api.handleBlockSource)
	mux.HandleFunc("GET "+root+"/{id}/preview", api.handleBlockPreview)
}

func (api *API) handleBlockList(w http.ResponseWriter, r *http.Request) {
	if api.catalog == nil {
		writeUnavailable(w)
		return
	}
	list := api.catalog.List()
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		list = api.catalog.ByCategory(category)
	}
	if list == nil {
		list = []blocks.Definition{}
	}
	writeJSON(w, http.StatusOK, blockListResponse{Categories: api.catalog.Categories(), Blocks: list})
}

func (api *API) handleBlockUsage(w http.ResponseWriter, r *http.Request) {
	if api.inspector == nil {
		writeUnavailable(w)
		return
	}
	usage, err := api.inspector.Usage(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (api *API) handleBlockSource(w http.ResponseWriter, r *http.Request) {
	if api.inspector == nil {
		writeUnavailable(w)
		return
	}
	info, err := api.inspector.Source(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (api *API) handleBlockPreview(w http.ResponseWriter, r *http.Request) {
	if api.catalog == nil || api.dispatcher == nil {
		writeUnavailable(w)
		return
	}
	rendered, err := api.catalog.Preview(r.Context(), api.dispatcher, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeHTML(w, http.StatusOK, []byte(rendered.HTML), len(rendered.Diagnostics))
}
