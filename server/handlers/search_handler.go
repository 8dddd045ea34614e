package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"crowdmap/models"
	"crowdmap/search"
)

const SEARCH_QUERY_ARG = "q"

// SearchHandler answers one-shot searches without debouncing.
type SearchHandler struct {
	executor        search.QueryExecutor
	minSearchLength int
}

func NewSearchHandler(executor search.QueryExecutor, minSearchLength int) *SearchHandler {
	if minSearchLength <= 0 {
		minSearchLength = search.DefaultMinSearchLength
	}
	return &SearchHandler{executor: executor, minSearchLength: minSearchLength}
}

// Search handles GET /v1/search?q=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get(SEARCH_QUERY_ARG))
	if query == "" || utf8.RuneCountInString(query) < h.minSearchLength {
		writeJSON(w, http.StatusOK, models.EmptySearchResults())
		return
	}
	writeJSON(w, http.StatusOK, h.executor.Execute(r.Context(), query))
}
