package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	mu   sync.Mutex
	keys []string
	in   []*s3.PutObjectInput
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, *in.Key)
	f.in = append(f.in, in)
	return &s3.PutObjectOutput{}, nil
}

// memUploader records uploads without an S3 client.
type memUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failKey string
}

func newMemUploader() *memUploader {
	return &memUploader{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memUploader) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if m.failKey != "" && strings.Contains(key, m.failKey) {
		return "", errors.New("bucket unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = body
	m.types[key] = contentType
	return "https://cdn.example.com/" + key, nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewR2Uploader_RequiresSettings(t *testing.T) {
	_, err := NewR2Uploader(R2Config{Endpoint: "https://r2.example.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	u, err := NewR2Uploader(R2Config{
		Endpoint: "https://acct.r2.cloudflarestorage.com", AccessKeyID: "k", SecretAccessKey: "s", Bucket: "comics",
		PublicBaseURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/manga/a/feat-1.jpg", u.URL("manga/a/feat-1.jpg"))
}

func TestR2Uploader_Put(t *testing.T) {
	fp := &fakePutter{}
	u := newR2Uploader(fp, R2Config{Endpoint: "https://r2.example.com/", Bucket: "comics"})

	got, err := u.Put(context.Background(), "/manga/x/page-1-a.png", []byte("png"), "image/png")

	require.NoError(t, err)
	assert.Equal(t, "https://r2.example.com/comics/manga/x/page-1-a.png", got)
	require.Len(t, fp.in, 1)
	assert.Equal(t, "comics", *fp.in[0].Bucket)
	assert.Equal(t, "manga/x/page-1-a.png", *fp.in[0].Key)
	assert.Equal(t, "image/png", *fp.in[0].ContentType)
	assert.Equal(t, int64(3), *fp.in[0].ContentLength)
}

func TestR2Uploader_PutError(t *testing.T) {
	u := newR2Uploader(&fakePutter{err: errors.New("403")}, R2Config{Bucket: "comics", PublicBaseURL: "https://cdn"})

	_, err := u.Put(context.Background(), "k.jpg", nil, "image/jpeg")

	assert.ErrorContains(t, err, "put object k.jpg")
}

func TestExtFromURL(t *testing.T) {
	tests := map[string]string{
		"https://i.example.com/galleries/1/2.png":            "png",
		"https://i.example.com/galleries/1/2.WEBP?token=abc": "webp",
		"https://i.example.com/galleries/1/2":                "jpg",
		"https://i.example.com/a.b/image":                    "jpg",
		"https://i.example.com/x.jpeg#frag":                  "jpeg",
		"https://i.example.com/x.toolongext":                 "jpg",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtFromURL(in), in)
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "manga/test-comic/page-3-abc.png", PageKey("test-comic", 3, "abc", "png"))
	assert.Equal(t, "manga/test-comic/feat-abc.jpg", FeatureKey("test-comic", "abc", "jpg"))
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/missing"):
			http.NotFound(w, r)
		case strings.HasPrefix(r.URL.Path, "/big"):
			w.Write(make([]byte, 64))
		default:
			var n int
			fmt.Sscanf(r.URL.Path, "/img/%d", &n)
			// earlier pages answer slower
			time.Sleep(time.Duration(10-n) * time.Millisecond)
			w.Header().Set("Content-Type", "image/png")
			fmt.Fprintf(w, "image-%d", n)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRehoster(up Uploader, maxSize int64) *Rehoster {
	r := NewRehoster(up, RehostOptions{Workers: 3, MaxSize: maxSize, Logger: quietLogger()})
	var mu sync.Mutex
	n := 0
	r.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id%d", n)
	}
	return r
}

func TestRehostPages_PreservesOrder(t *testing.T) {
	srv := imageServer(t)
	up := newMemUploader()
	r := newTestRehoster(up, 1<<20)

	var urls []string
	for i := 1; i <= 6; i++ {
		urls = append(urls, fmt.Sprintf("%s/img/%d.png?x=1", srv.URL, i))
	}

	got, err := r.RehostPages(context.Background(), "test-comic", urls)

	require.NoError(t, err)
	require.Len(t, got, 6)
	for i, u := range got {
		assert.True(t, strings.HasPrefix(u, fmt.Sprintf("https://cdn.example.com/manga/test-comic/page-%d-", i+1)), u)
		assert.True(t, strings.HasSuffix(u, ".png"), u)
		key := strings.TrimPrefix(u, "https://cdn.example.com/")
		assert.Equal(t, fmt.Sprintf("image-%d", i+1), string(up.objects[key]))
		assert.Equal(t, "image/png", up.types[key])
	}
}

func TestRehostPages_FailsOnMissingImage(t *testing.T) {
	srv := imageServer(t)
	r := newTestRehoster(newMemUploader(), 1<<20)

	_, err := r.RehostPages(context.Background(), "x", []string{srv.URL + "/img/1.jpg", srv.URL + "/missing.jpg"})

	assert.ErrorIs(t, err, ErrDownload)
	assert.ErrorContains(t, err, "page 2")
}

func TestRehost_RejectsOversizedBody(t *testing.T) {
	srv := imageServer(t)
	r := newTestRehoster(newMemUploader(), 16)

	_, err := r.Rehost(context.Background(), srv.URL+"/big.jpg", "k.jpg")

	assert.ErrorIs(t, err, ErrDownload)
}

func TestRehostFeature_Key(t *testing.T) {
	srv := imageServer(t)
	up := newMemUploader()
	r := newTestRehoster(up, 1<<20)

	got, err := r.RehostFeature(context.Background(), "test-comic", srv.URL+"/img/1.webp")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/manga/test-comic/feat-id1.webp", got)
}

func TestRehost_UploadFailure(t *testing.T) {
	srv := imageServer(t)
	up := newMemUploader()
	up.failKey = "feat-"
	r := newTestRehoster(up, 1<<20)

	_, err := r.RehostFeature(context.Background(), "x", srv.URL+"/img/1.jpg")

	assert.ErrorContains(t, err, "bucket unavailable")
}

func TestUpload(t *testing.T) {
	up := newMemUploader()
	r := newTestRehoster(up, 8)

	got, err := r.Upload(context.Background(), "Cover.PNG", []byte("abc"), "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/manga/uploads/id1.png", got)
	assert.Equal(t, "image/png", up.types["manga/uploads/id1.png"])

	_, err = r.Upload(context.Background(), "big.jpg", make([]byte, 9), "image/jpeg")
	assert.Error(t, err)
}

func TestRehostURL(t *testing.T) {
	srv := imageServer(t)
	up := newMemUploader()
	r := newTestRehoster(up, 1<<20)

	got, err := r.RehostURL(context.Background(), srv.URL+"/img/2.gif?size=large")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/manga/uploads/id1.gif", got)
	assert.Equal(t, []byte("image-2"), up.objects["manga/uploads/id1.gif"])
}
