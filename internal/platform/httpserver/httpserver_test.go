package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("bounds reads and writes around the request timeout", func(t *testing.T) {
		srv := New(":8080", http.NotFoundHandler(), 45*time.Second)
		assert.Equal(t, ":8080", srv.Addr)
		assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
		assert.Equal(t, 45*time.Second, srv.ReadTimeout)
		assert.Equal(t, 50*time.Second, srv.WriteTimeout)
		assert.Equal(t, 60*time.Second, srv.IdleTimeout)
	})

	t.Run("zero request timeout leaves writes unbounded", func(t *testing.T) {
		srv := New(":8080", http.NotFoundHandler(), 0)
		assert.Zero(t, srv.ReadTimeout)
		assert.Zero(t, srv.WriteTimeout)
		assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	})
}
