package assets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memStore) PublicURL(key string) string {
	return "http://cdn.test/driftbooks/" + key
}

func TestTransfer_StoresAndRewritesURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	store := newMemStore()
	tr := NewTransferrer(store)

	res := tr.Transfer(context.Background(), "book-1", server.URL+"/cover.png")

	assert.False(t, res.Degraded)
	assert.Equal(t, "http://cdn.test/driftbooks/covers/book-1.png", res.URL)
	require.Contains(t, store.objects, "covers/book-1.png")
	assert.Equal(t, []byte("png-bytes"), store.objects["covers/book-1.png"])
	assert.Equal(t, "image/png", store.types["covers/book-1.png"])
}

func TestTransfer_DegradesOnDownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	tr := NewTransferrer(newMemStore())
	src := server.URL + "/missing.jpg"
	res := tr.Transfer(context.Background(), "book-1", src)

	assert.True(t, res.Degraded)
	assert.Error(t, res.Cause)
	// The original URL survives so the book still has a cover reference.
	assert.Equal(t, src, res.URL)
}

func TestTransfer_DegradesOnStoreFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("bytes"))
	}))
	defer server.Close()

	store := newMemStore()
	store.putErr = errors.New("bucket gone")
	tr := NewTransferrer(store)

	src := server.URL + "/cover.jpg"
	res := tr.Transfer(context.Background(), "book-1", src)

	assert.True(t, res.Degraded)
	assert.Equal(t, src, res.URL)
}

func TestTransfer_DegradesOnUnreachableHost(t *testing.T) {
	tr := NewTransferrer(newMemStore())

	src := "http://127.0.0.1:1/cover.jpg"
	res := tr.Transfer(context.Background(), "book-1", src)

	assert.True(t, res.Degraded)
	assert.Equal(t, src, res.URL)
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, "png", extensionFor("image/png"))
	assert.Equal(t, "webp", extensionFor("image/webp"))
	assert.Equal(t, "jpg", extensionFor("application/octet-stream"))
	assert.Equal(t, "jpg", extensionFor(""))
}
