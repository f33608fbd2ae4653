package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/datalakehq/catalogd/pkg/api/middleware"
	"github.com/datalakehq/catalogd/pkg/catalog/service"
)

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is
// written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "invalid request body")
		return false
	}
	return true
}

// callerIdentity fetches the identity resolved by the Authenticate
// middleware. Returns false after writing a 401 when the middleware did not
// run, which indicates a routing mistake.
func callerIdentity(w http.ResponseWriter, r *http.Request) (service.Identity, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		Unauthorized(w, "authentication required")
		return service.Identity{}, false
	}
	return id, true
}

// queryParam fetches a required query parameter, writing a 400 when it is
// missing.
func queryParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		BadRequest(w, "query parameter "+name+" is required")
		return "", false
	}
	return v, true
}
