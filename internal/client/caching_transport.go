package client

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// NewCachingHTTPClient creates an HTTP client that honours Cache-Control on responses.
// The published session listing is the only cacheable endpoint.
func NewCachingHTTPClient(cacheDir string) *http.Client {
	if cacheDir == "" {
		return NewInMemoryCachingHTTPClient()
	}

	transport := httpcache.NewTransport(diskcache.New(cacheDir))
	return &http.Client{
		Transport: transport,
	}
}

// NewInMemoryCachingHTTPClient creates an HTTP client with in-memory caching only.
func NewInMemoryCachingHTTPClient() *http.Client {
	return &http.Client{
		Transport: httpcache.NewTransport(httpcache.NewMemoryCache()),
	}
}
