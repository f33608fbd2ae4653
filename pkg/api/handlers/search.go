package handlers

import (
	"net/http"

	"github.com/datalakehq/catalogd/pkg/catalog/service"
)

// SearchHandler handles catalog search.
type SearchHandler struct {
	svc *service.Service
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(svc *service.Service) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search handles POST /api/v1/search.
//
// The body carries the filter expressions; results are paginated and
// scoped to what the caller may see.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req service.SearchRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	result, err := h.svc.Search(r.Context(), id, req)
	if err != nil {
		WriteFault(w, err)
		return
	}
	WriteJSONOK(w, result)
}
