package apiserver

import (
	"net/http"

	"reunion/internal/directory"
	"reunion/internal/metrics"
)

// SearchHandler serves the memory search over the profile directory.
type SearchHandler struct {
	searcher *directory.Searcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searcher *directory.Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// MemorySearch handles GET /api/v1/memory-search?name=&edu_type=&education=&department=&batch_start=&batch_end=&fuzzy=
func (h *SearchHandler) MemorySearch(w http.ResponseWriter, r *http.Request) {
	q, err := directory.ParseQuery(r.URL.Query())
	if err != nil {
		metrics.IncDirectorySearch(q.Fuzzy, metrics.StatusFailed)
		writeServiceError(w, r, err, "search failed")
		return
	}

	result, err := h.searcher.Search(r.Context(), q)
	if err != nil {
		metrics.IncDirectorySearch(q.Fuzzy, metrics.StatusFailed)
		writeServiceError(w, r, err, "search failed")
		return
	}

	metrics.IncDirectorySearch(q.Fuzzy, metrics.StatusSuccess)
	writeJSONResponse(w, http.StatusOK, result.Items())
}
