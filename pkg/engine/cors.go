package engine

import "net/http"

// CORSEcho wraps a handler and reflects the caller's Origin header on every
// response. Dashboard pages inject requests from whatever site is under
// test, so the allowed origin is whoever asked, with credentials.
type CORSEcho struct {
	handler http.Handler
}

// NewCORSEcho wraps a handler with origin echoing.
func NewCORSEcho(handler http.Handler) *CORSEcho {
	return &CORSEcho{handler: handler}
}

// ServeHTTP implements http.Handler. Preflight requests are answered here
// and never reach the wrapped handler.
func (m *CORSEcho) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
	}

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	m.handler.ServeHTTP(w, r)
}
