package service

import (
	"context"
	"errors"
	"fmt"

	"susmanga/internal/microservices/http-api/models"
	"susmanga/internal/microservices/http-api/repository"

	"github.com/google/uuid"
)

// EntityResolver maps a label name to the id of its single canonical row.
type EntityResolver struct {
	store repository.EntityStore
}

func NewEntityResolver(store repository.EntityStore) *EntityResolver {
	return &EntityResolver{store: store}
}

// Resolve looks the name up by exact match and creates it when missing. A
// concurrent creation of the same name shows up as ErrDuplicate from the
// insert and is settled by selecting the winner's row.
func (r *EntityResolver) Resolve(ctx context.Context, cat models.Category, name string) (int64, error) {
	id, err := r.store.FindEntityID(ctx, cat, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("lookup %s %q: %w", cat.Key, name, err)
	}

	id, err = r.store.InsertEntity(ctx, cat, name, Slugify(name))
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return 0, fmt.Errorf("create %s %q: %w", cat.Key, name, err)
	}

	id, err = r.store.FindEntityID(ctx, cat, name)
	if err != nil {
		return 0, fmt.Errorf("re-select %s %q after conflict: %w", cat.Key, name, err)
	}
	return id, nil
}

// LinkWriter records that a manga carries a label. Writing the same link
// twice leaves exactly one join row.
type LinkWriter struct {
	store repository.LinkStore
}

func NewLinkWriter(store repository.LinkStore) *LinkWriter {
	return &LinkWriter{store: store}
}

func (w *LinkWriter) Link(ctx context.Context, cat models.Category, mangaID uuid.UUID, entityID int64) error {
	err := w.store.InsertLink(ctx, cat, mangaID, entityID)
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("link %s %d: %w", cat.Key, entityID, err)
	}
	return nil
}
