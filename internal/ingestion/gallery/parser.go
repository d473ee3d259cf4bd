package gallery

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	titleSelector     = "h1.title span.pretty, h2.title span.pretty"
	coverSelector     = "#cover img"
	thumbSelector     = "#thumbnail-container .thumb-container"
	tagBlockSelector  = "#tags .tag-container"
	tagNameSelector   = "a.tag .name"
	pageImageSelector = "#image-container img"
)

// ParseGallery reads a gallery landing page.
func ParseGallery(id string, r io.Reader) (*Gallery, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse gallery %s: %w", id, err)
	}

	cover := doc.Find(coverSelector).First()
	feature := firstAttr(cover, "data-src", "src")
	if feature == "" {
		return nil, fmt.Errorf("%w: feature image for gallery %s", ErrMissingContent, id)
	}

	g := &Gallery{
		ID:              id,
		Title:           strings.TrimSpace(doc.Find(titleSelector).First().Text()),
		FeatureImageURL: feature,
		TotalPages:      doc.Find(thumbSelector).Length(),
		Labels:          map[string][]string{},
	}

	doc.Find(tagBlockSelector).Each(func(_ int, block *goquery.Selection) {
		label := blockLabel(block)
		if !labelBlocks[label] {
			return
		}
		block.Find(tagNameSelector).Each(func(_ int, el *goquery.Selection) {
			if name := strings.TrimSpace(el.Text()); name != "" {
				g.Labels[label] = append(g.Labels[label], name)
			}
		})
	})

	return g, nil
}

// ParsePageImage reads the image URL from a single reader page.
func ParsePageImage(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	img := firstAttr(doc.Find(pageImageSelector).First(), "src", "data-src")
	if img == "" {
		return "", fmt.Errorf("%w: page image", ErrMissingContent)
	}
	return img, nil
}

// blockLabel is the heading text of a tag container with its child
// elements removed, e.g. "Tags:" -> "tags".
func blockLabel(block *goquery.Selection) string {
	heading := block.Clone()
	heading.Children().Remove()
	text := strings.Replace(heading.Text(), ":", "", 1)
	return strings.ToLower(strings.TrimSpace(text))
}

func firstAttr(sel *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := sel.Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
