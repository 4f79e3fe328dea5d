package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLibraryProvider_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/books", r.URL.Path)
		assert.Equal(t, "ISBN:9780306406157", r.URL.Query().Get("bibkeys"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"ISBN:9780306406157": {
				"title": "Flow Measurement Handbook",
				"authors": [{"name": "Roger C. Baker"}],
				"description": {"value": "A reference on flow measurement."},
				"publishers": [{"name": "Cambridge"}],
				"cover": {"medium": "http://covers.example/m.jpg"},
				"subjects": [{"name": "Engineering"}],
				"number_of_pages": 524,
				"publish_date": "2000"
			}
		}`)
	}))
	defer server.Close()

	p := NewOpenLibraryProvider(server.URL, 0)
	rec, err := p.Lookup(context.Background(), "9780306406157")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "Flow Measurement Handbook", *rec.Title)
	assert.Equal(t, []string{"Roger C. Baker"}, rec.Authors)
	assert.Equal(t, "A reference on flow measurement.", *rec.Description)
	assert.Equal(t, "Cambridge", *rec.Publisher)
	assert.Equal(t, "http://covers.example/m.jpg", *rec.CoverURL)
	assert.Equal(t, []string{"Engineering"}, rec.Categories)
	assert.Equal(t, 524, *rec.PageCount)
	assert.Equal(t, "2000", *rec.PublishDate)
}

func TestOpenLibraryProvider_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	p := NewOpenLibraryProvider(server.URL, 0)
	rec, err := p.Lookup(context.Background(), "9780000000000")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestOpenLibraryProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewOpenLibraryProvider(server.URL, 0)
	_, err := p.Lookup(context.Background(), "9780306406157")
	assert.Error(t, err)
}

func TestExtractDescription(t *testing.T) {
	assert.Equal(t, "plain", extractDescription("plain"))
	assert.Equal(t, "from value", extractDescription(map[string]any{"value": "from value"}))
	assert.Empty(t, extractDescription(nil))
	assert.Empty(t, extractDescription(42))
}

func TestGoogleBooksProvider_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		assert.Equal(t, "isbn:9780306406157", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"totalItems": 1,
			"items": [{
				"volumeInfo": {
					"title": "Flow Measurement Handbook",
					"authors": ["Roger C. Baker", "Second Author"],
					"publisher": "Cambridge University Press",
					"publishedDate": "2000-02-13",
					"description": "Industrial designs and applications.",
					"pageCount": 524,
					"categories": ["Technology"],
					"language": "en",
					"averageRating": 4.5,
					"ratingsCount": 12,
					"imageLinks": {
						"thumbnail": "http://books.example/cover?zoom=1&id=x"
					}
				}
			}]
		}`)
	}))
	defer server.Close()

	p := NewGoogleBooksProvider(server.URL, "", 0)
	rec, err := p.Lookup(context.Background(), "9780306406157")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "Flow Measurement Handbook", *rec.Title)
	assert.Equal(t, []string{"Roger C. Baker", "Second Author"}, rec.Authors)
	assert.Equal(t, "Cambridge University Press", *rec.Publisher)
	assert.Equal(t, 4.5, *rec.AverageRating)
	assert.Equal(t, 12, *rec.RatingsCount)
	// Thumbnail is upgraded to the zoom=0 variant.
	assert.Equal(t, "http://books.example/cover?zoom=0&id=x", *rec.CoverURL)
}

func TestGoogleBooksProvider_SendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sekrit", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{"totalItems": 0}`)
	}))
	defer server.Close()

	p := NewGoogleBooksProvider(server.URL, "sekrit", 0)
	rec, err := p.Lookup(context.Background(), "9780306406157")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestProviders_HonorConfiguredTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	ol := NewOpenLibraryProvider(server.URL, 50*time.Millisecond)
	_, err := ol.Lookup(context.Background(), "9780306406157")
	assert.Error(t, err)

	gb := NewGoogleBooksProvider(server.URL, "", 50*time.Millisecond)
	_, err = gb.Lookup(context.Background(), "9780306406157")
	assert.Error(t, err)
}

func TestGoogleBooksProvider_NoItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"totalItems": 0, "items": []}`)
	}))
	defer server.Close()

	p := NewGoogleBooksProvider(server.URL, "", 0)
	rec, err := p.Lookup(context.Background(), "9780000000000")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
