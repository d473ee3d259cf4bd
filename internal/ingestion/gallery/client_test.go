package gallery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		BaseURL:   srv.URL,
		RateLimit: 1000,
		Workers:   3,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	c.initialDelay = time.Millisecond
	return c
}

func pageHTML(n int) string {
	return fmt.Sprintf(`<section id="image-container"><img src="https://i.example.com/%d.jpg"></section>`, n)
}

func TestFetchGallery(t *testing.T) {
	var ua string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.UserAgent()
		assert.Equal(t, "/g/177013/", r.URL.Path)
		io.WriteString(w, galleryHTML)
	}))

	g, err := c.FetchGallery(context.Background(), "177013")

	require.NoError(t, err)
	assert.Equal(t, "Test Comic", g.Title)
	assert.Equal(t, 3, g.TotalPages)
	assert.Equal(t, defaultUserAgent, ua)
}

func TestFetchGallery_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, galleryHTML)
	}))

	g, err := c.FetchGallery(context.Background(), "177013")

	require.NoError(t, err)
	assert.Equal(t, "Test Comic", g.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchGallery_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.FetchGallery(context.Background(), "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestFetchGallery_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))

	_, err := c.FetchGallery(context.Background(), "404")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchPageImages_KeepsPageOrder(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n int
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		fmt.Sscanf(parts[len(parts)-1], "%d", &n)
		// later pages answer faster
		time.Sleep(time.Duration(10-n) * time.Millisecond)
		io.WriteString(w, pageHTML(n))
	}))

	urls, err := c.FetchPageImages(context.Background(), "42", 8)

	require.NoError(t, err)
	require.Len(t, urls, 8)
	for i, u := range urls {
		assert.Equal(t, fmt.Sprintf("https://i.example.com/%d.jpg", i+1), u)
	}
}

func TestFetchPageImages_FailsWhenAnyPageFails(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/g/42/3/" {
			io.WriteString(w, `<div>no image here</div>`)
			return
		}
		io.WriteString(w, pageHTML(1))
	}))

	_, err := c.FetchPageImages(context.Background(), "42", 5)

	assert.ErrorIs(t, err, ErrMissingContent)
}

func TestFetchPageImages_RequiresPages(t *testing.T) {
	c := NewClient(Options{})

	_, err := c.FetchPageImages(context.Background(), "42", 0)

	assert.ErrorIs(t, err, ErrMissingContent)
}
