package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second

	// writeSlack covers encoding a large sync report after the handler's
	// own deadline has fired.
	writeSlack = 5 * time.Second
)

// New builds the lattice HTTP server. requestTimeout is the longest a
// handler may run (a full batch plus persistence); body reads and response
// writes are bounded around it so a slow client cannot pin a sync.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       requestTimeout,
		IdleTimeout:       idleTimeout,
	}
	if requestTimeout > 0 {
		srv.WriteTimeout = requestTimeout + writeSlack
	}
	return srv
}
