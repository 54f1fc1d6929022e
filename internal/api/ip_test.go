package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIPExtractor(t *testing.T) {
	req := func(remote, xff string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remote
		if xff != "" {
			r.Header.Set("X-Forwarded-For", xff)
		}
		return r
	}

	direct, err := NewIPExtractor(nil)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", direct(req("203.0.113.9:5000", "198.51.100.1")))

	proxied, err := NewIPExtractor([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.1", proxied(req("10.1.2.3:5000", "198.51.100.1")),
		"forwarded address is used behind a trusted proxy")
	assert.Equal(t, "203.0.113.9", proxied(req("203.0.113.9:5000", "198.51.100.1")),
		"forwarded address from an untrusted peer is ignored")

	_, err = NewIPExtractor([]string{"not-a-cidr"})
	assert.Error(t, err)
}
