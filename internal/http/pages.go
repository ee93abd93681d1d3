package http

import (
	"io"
	"net/http"
	"strings"

	pagescmd "github.com/goliatone/go-pagekit/internal/commands/pages"
	"github.com/goliatone/go-pagekit/internal/pages"
	"github.com/goliatone/go-pagekit/internal/variants"
)

// maxDocumentBytes bounds PUT and POST bodies.
const maxDocumentBytes = 4 << 20

type duplicateResponse struct {
	NewSlug string          `json:"newSlug"`
	Page    *pages.Document `json:"page,omitempty"`
}

func withVariantList(group variants.Group) variants.Group {
	if group.Variants == nil {
		group.Variants = []variants.Member{}
	}
	return group
}

func (api *API) registerPageRoutes(mux *http.ServeMux, base string) {
	root := joinPath(base, "pages")
	mux.HandleFunc("GET "+root, api.handlePageIndex)
	mux.HandleFunc("POST "+root, api.handlePageCreate)
	mux.HandleFunc("GET "+root+"/{slug}", api.handlePageGet)
	mux.HandleFunc("PUT "+root+"/{slug}", api.handlePagePut)
	mux.HandleFunc("DELETE "+root+"/{slug}", api.handlePageDelete)
	mux.HandleFunc("POST "+root+"/{slug}/duplicate", api.handlePageDuplicate)
	mux.HandleFunc("GET "+root+"/{slug}/variants", api.handlePageVariants)
	mux.HandleFunc("GET "+joinPath(base, "variants"), api.handleVariantGroups)
}

func (api *API) handlePageIndex(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	index, err := api.pages.Index(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if index == nil {
		index = []pages.Summary{}
	}
	writeJSON(w, http.StatusOK, index)
}

func (api *API) handlePageGet(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	doc, err := api.pages.Get(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (api *API) handlePageCreate(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	created, err := api.pages.Create(r.Context(), doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (api *API) handlePagePut(w http.ResponseWriter, r *http.Request) {
	if api.save == nil {
		writeUnavailable(w)
		return
	}
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	slug := r.PathValue("slug")
	if strings.TrimSpace(doc.Slug) == "" {
		doc.Slug = slug
	}
	result := &pagescmd.Result{}
	if err := api.save.Execute(r.Context(), pagescmd.SavePageCommand{Slug: slug, Document: doc, Result: result}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Document)
}

func (api *API) handlePageDelete(w http.ResponseWriter, r *http.Request) {
	if api.remove == nil {
		writeUnavailable(w)
		return
	}
	if err := api.remove.Execute(r.Context(), pagescmd.DeletePageCommand{Slug: r.PathValue("slug")}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *API) handlePageDuplicate(w http.ResponseWriter, r *http.Request) {
	if api.duplicate == nil {
		writeUnavailable(w)
		return
	}
	result := &pagescmd.Result{}
	if err := api.duplicate.Execute(r.Context(), pagescmd.DuplicatePageCommand{Slug: r.PathValue("slug"), Result: result}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, duplicateResponse{NewSlug: result.Document.Slug, Page: result.Document})
}

func (api *API) handlePageVariants(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	group, err := api.pages.Variants(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withVariantList(group))
}

func (api *API) handleVariantGroups(w http.ResponseWriter, r *http.Request) {
	if api.pages == nil {
		writeUnavailable(w)
		return
	}
	groups, err := api.pages.VariantGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]variants.Group, 0, len(groups))
	for _, group := range groups {
		out = append(out, withVariantList(group))
	}
	writeJSON(w, http.StatusOK, out)
}

func readDocument(w http.ResponseWriter, r *http.Request) (*pages.Document, bool) {
	if r.Body == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "request body required"})
		return nil, false
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return nil, false
	}
	doc, err := pages.DecodeDocument(data)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return doc, true
}
