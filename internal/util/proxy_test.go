package util

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proxyFor(t *testing.T, fn func(*http.Request) (*url.URL, error), target string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	u, err := fn(req)
	require.NoError(t, err)
	if u == nil {
		return ""
	}
	return u.String()
}

func TestNewProxyFunc_Explicit(t *testing.T) {
	fn := NewProxyFunc("http://proxy.local:3128", "", "internal.example.com")

	assert.Equal(t, "http://proxy.local:3128", proxyFor(t, fn, "http://maps.example.com/geocode"))
	assert.Equal(t, "http://proxy.local:3128", proxyFor(t, fn, "https://maps.example.com/geocode"),
		"https falls back to the http proxy")
	assert.Equal(t, "", proxyFor(t, fn, "https://internal.example.com/x"))
}

func TestNewProxyFunc_SeparateHTTPS(t *testing.T) {
	fn := NewProxyFunc("http://plain.local:3128", "http://secure.local:3129", "")

	assert.Equal(t, "http://plain.local:3128", proxyFor(t, fn, "http://maps.example.com"))
	assert.Equal(t, "http://secure.local:3129", proxyFor(t, fn, "https://maps.example.com"))
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(3*time.Second, "", "", "")

	assert.Equal(t, 3*time.Second, c.Timeout)
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.Proxy)
}
