package gallery

import "errors"

var (
	// ErrNotFound is returned when the source answers 404 for a gallery or page.
	ErrNotFound = errors.New("gallery not found")
	// ErrMissingContent is returned when a required element is absent from the page.
	ErrMissingContent = errors.New("required element missing")
)

// Gallery is the metadata scraped from a gallery landing page.
type Gallery struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	FeatureImageURL string              `json:"featureImage"`
	TotalPages      int                 `json:"totalPages"`
	Labels          map[string][]string `json:"labels"`
}

// labelBlocks are the tag-container headings kept by the parser. Other
// blocks ("pages", "uploaded") carry no taxonomy.
var labelBlocks = map[string]bool{
	"parodies":   true,
	"characters": true,
	"tags":       true,
	"artists":    true,
	"groups":     true,
	"languages":  true,
	"categories": true,
}
