// Package httptransport builds the service's HTTP server.
package httptransport

import (
	"net/http"
	"time"
)

// Request bodies here are small JSON documents and reads are map lookups, so
// one set of timeouts serves every endpoint.
const (
	readTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
)

// NewServer wraps handler in an *http.Server listening on addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
