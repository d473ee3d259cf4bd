package service

import "errors"

var (
	// ErrValidation marks input rejected before any write.
	ErrValidation = errors.New("invalid input")
	// ErrUpstream marks a failed call to the scrape source or an image host.
	ErrUpstream = errors.New("upstream fetch failed")
	// ErrSlugTaken is returned when another manga already owns the slug.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrNotFound is returned when a slug, entity or category does not exist.
	ErrNotFound = errors.New("not found")
)
