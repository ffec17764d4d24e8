// Package httpserver configures the registry's HTTP listener.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server the registry API runs on. Header reads are bounded
// so a slow client cannot hold a connection before routing; per-request time
// is bounded by the router's timeout middleware, so no WriteTimeout is set
// here. IdleTimeout reaps keep-alive connections from polling clients.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       90 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
}
