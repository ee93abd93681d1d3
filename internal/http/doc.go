// Package http exposes the page store, block introspection and page rendering
// over HTTP.
//
// Routes mount under a configurable base path (default /api):
//   - Pages: GET /pages, POST /pages, GET|PUT|DELETE /pages/{slug}
//   - Variants: POST /pages/{slug}/duplicate, GET /pages/{slug}/variants, GET /variants
//   - Blocks: GET /blocks, GET /blocks/usage, GET /blocks/{id}/source, GET /blocks/{id}/preview
//
// Rendered pages are served under a separate prefix (default /p/{slug}).
package http
