package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/earthscan/s3loader/common"
	"github.com/stretchr/testify/assert"
)

func newDHUSServer(t *testing.T, online *string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pword, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "secret", pword)
		switch r.URL.Path {
		case "/odata/v1/Products('uuid-1')/$value":
			fmt.Fprint(w, "product-bytes")
		case "/odata/v1/Products('uuid-1')/Online/$value":
			fmt.Fprint(w, *online)
		case "/odata/v1/Products('uuid-1')/Checksum/Value/$value":
			fmt.Fprint(w, "D41D8CD98F00B204E9800998ECF8427E")
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestDHUSOnline(t *testing.T) {
	online := "false"
	server := newDHUSServer(t, &online)
	defer server.Close()
	p := NewDHUSProvider(server.URL, "user", "secret", 1)

	applicable, isOnline := p.Online(context.Background(), "uuid-1")
	assert.True(t, applicable)
	assert.False(t, isOnline)

	online = "true"
	applicable, isOnline = p.Online(context.Background(), "uuid-1")
	assert.True(t, applicable)
	assert.True(t, isOnline)

	applicable, isOnline = p.Online(context.Background(), "uuid-unknown")
	assert.False(t, applicable)
	assert.False(t, isOnline)
}

func TestDHUSChecksum(t *testing.T) {
	online := "true"
	server := newDHUSServer(t, &online)
	defer server.Close()
	p := NewDHUSProvider(server.URL, "user", "secret", 1)

	sum, err := p.Checksum(context.Background(), "uuid-1")
	assert.NoError(t, err)
	assert.Equal(t, "D41D8CD98F00B204E9800998ECF8427E", sum)

	_, err = p.Checksum(context.Background(), "uuid-unknown")
	assert.Error(t, err)
}

func TestDHUSDownload(t *testing.T) {
	online := "true"
	server := newDHUSServer(t, &online)
	defer server.Close()
	p := NewDHUSProvider(server.URL, "user", "secret", 1)

	content, tried, err := p.Download(context.Background(), common.Product{UUID: "uuid-1", Name: efrProduct}, filepath.Join(t.TempDir(), "staging"))
	assert.NoError(t, err)
	assert.Equal(t, 1, tried)
	assert.Equal(t, []byte("product-bytes"), content)
}

func TestDownloadPermanentErrorStops(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.NotFound(w, r)
	}))
	defer server.Close()
	p := NewDHUSProvider(server.URL, "user", "secret", 3)

	_, tried, err := p.Download(context.Background(), common.Product{UUID: "uuid-gone", Name: efrProduct}, filepath.Join(t.TempDir(), "staging"))
	assert.Error(t, err)
	assert.Equal(t, 1, tried)
	assert.Equal(t, 1, requests)
}

func TestDownloadTemporaryErrorRetries(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	p := NewDHUSProvider(server.URL, "user", "secret", 2)

	_, tried, err := p.Download(context.Background(), common.Product{UUID: "uuid-1", Name: efrProduct}, filepath.Join(t.TempDir(), "staging"))
	assert.Error(t, err)
	assert.Equal(t, 2, tried)
	assert.Equal(t, 2, requests)
}
