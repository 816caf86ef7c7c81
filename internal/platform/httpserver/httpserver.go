package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. The read timeout leaves room for multipart
// application submissions from slow municipal connections; writes are bounded
// by the presign round-trip to the object store.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
