package server

import "net/http"

// ReadOnlyMiddleware allows only GET, HEAD, and OPTIONS. Manual refresh and
// settings changes are rejected with 405 Method Not Allowed.
func ReadOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			MethodNotAllowed(w, "read-only mode: "+r.Method+" is disabled", r.URL.Path)
		}
	})
}
