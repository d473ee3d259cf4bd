package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrDownload marks a failed fetch of a remote image.
var ErrDownload = errors.New("download failed")

const defaultExt = "jpg"

// Uploader stores bytes under a key and returns the public URL.
type Uploader interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type RehostOptions struct {
	Workers    int
	MaxSize    int64
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Rehoster copies remote images into object storage.
type Rehoster struct {
	uploader  Uploader
	client    *http.Client
	workers   int
	maxSize   int64
	userAgent string
	logger    *slog.Logger
	newID     func() string
}

func NewRehoster(uploader Uploader, opts RehostOptions) *Rehoster {
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.MaxSize < 1 {
		opts.MaxSize = 20 << 20
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Rehoster{
		uploader:  uploader,
		client:    opts.HTTPClient,
		workers:   opts.Workers,
		maxSize:   opts.MaxSize,
		userAgent: opts.UserAgent,
		logger:    opts.Logger.With("component", "rehost"),
		newID:     uuid.NewString,
	}
}

// Rehost downloads remoteURL and uploads it under key.
func (r *Rehoster) Rehost(ctx context.Context, remoteURL, key string) (string, error) {
	body, contentType, err := r.download(ctx, remoteURL)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	return r.uploader.Put(ctx, key, body, contentType)
}

// RehostFeature stores a cover image as manga/<slug>/feat-<uuid>.<ext>.
func (r *Rehoster) RehostFeature(ctx context.Context, slug, remoteURL string) (string, error) {
	return r.Rehost(ctx, remoteURL, FeatureKey(slug, r.newID(), ExtFromURL(remoteURL)))
}

// RehostPages stores each page as manga/<slug>/page-<i>-<uuid>.<ext> and
// returns the new URLs in input order.
func (r *Rehoster) RehostPages(ctx context.Context, slug string, urls []string) ([]string, error) {
	out := make([]string, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, u := range urls {
		g.Go(func() error {
			key := PageKey(slug, i+1, r.newID(), ExtFromURL(u))
			stored, err := r.Rehost(gctx, u, key)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			out[i] = stored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("re-hosted pages", "slug", slug, "pages", len(urls))
	return out, nil
}

// RehostURL stores a single remote image under manga/uploads.
func (r *Rehoster) RehostURL(ctx context.Context, remoteURL string) (string, error) {
	return r.Rehost(ctx, remoteURL, fmt.Sprintf("manga/uploads/%s.%s", r.newID(), ExtFromURL(remoteURL)))
}

// Upload stores an already received file under manga/uploads.
func (r *Rehoster) Upload(ctx context.Context, filename string, body []byte, contentType string) (string, error) {
	if int64(len(body)) > r.maxSize {
		return "", fmt.Errorf("file exceeds %d bytes", r.maxSize)
	}
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = defaultExt
	}
	key := fmt.Sprintf("manga/uploads/%s.%s", r.newID(), strings.ToLower(ext))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = ContentTypeFor(key)
	}
	return r.uploader.Put(ctx, key, body, contentType)
}

func (r *Rehoster) download(ctx context.Context, remoteURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrDownload, remoteURL, err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrDownload, remoteURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: %s: HTTP %d", ErrDownload, remoteURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrDownload, remoteURL, err)
	}
	if int64(len(body)) > r.maxSize {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", ErrDownload, remoteURL, r.maxSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = ""
	}
	return body, contentType, nil
}

func PageKey(slug string, index int, id, ext string) string {
	return fmt.Sprintf("manga/%s/page-%d-%s.%s", slug, index, id, ext)
}

func FeatureKey(slug, id, ext string) string {
	return fmt.Sprintf("manga/%s/feat-%s.%s", slug, id, ext)
}

// ExtFromURL returns the lower-cased file extension of the URL path, query
// excluded, or "jpg" when there is none.
func ExtFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if ext == "" || len(ext) > 5 {
		return defaultExt
	}
	return ext
}

// ContentTypeFor guesses an image MIME type from the key extension.
func ContentTypeFor(key string) string {
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "image/jpeg"
}
