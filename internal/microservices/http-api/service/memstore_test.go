package service

import (
	"context"
	"sort"
	"sync"

	"susmanga/internal/microservices/http-api/models"
	"susmanga/internal/microservices/http-api/repository"

	"github.com/google/uuid"
)

type linkKey struct {
	mangaID  uuid.UUID
	entityID int64
}

// memStore is an in-memory ContentStore with the same unique constraints as
// the Postgres schema. fail injects an error for the named method.
type memStore struct {
	mu sync.Mutex

	manga    map[uuid.UUID]models.Manga
	slugs    map[string]uuid.UUID
	pages    map[uuid.UUID]map[int]string
	entities map[string]map[string]models.Entity
	links    map[string]map[linkKey]struct{}
	nextID   int64

	fail  map[string]error
	calls map[string]int
	// raceOn makes InsertEntity behave as if another ingestion created the
	// name between the lookup and the insert.
	raceOn map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		manga:    map[uuid.UUID]models.Manga{},
		slugs:    map[string]uuid.UUID{},
		pages:    map[uuid.UUID]map[int]string{},
		entities: map[string]map[string]models.Entity{},
		links:    map[string]map[linkKey]struct{}{},
		fail:     map[string]error{},
		calls:    map[string]int{},
		raceOn:   map[string]bool{},
	}
}

var _ repository.ContentStore = (*memStore)(nil)

func (m *memStore) enter(method string) error {
	m.mu.Lock()
	m.calls[method]++
	return m.fail[method]
}

func (m *memStore) CreateManga(ctx context.Context, manga *models.Manga) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateManga"); err != nil {
		return err
	}
	if _, ok := m.manga[manga.ID]; ok {
		return repository.ErrDuplicate
	}
	m.manga[manga.ID] = *manga
	return nil
}

func (m *memStore) DeleteManga(ctx context.Context, id uuid.UUID) error {
	defer m.mu.Unlock()
	if err := m.enter("DeleteManga"); err != nil {
		return err
	}
	delete(m.manga, id)
	return nil
}

func (m *memStore) CreateSlug(ctx context.Context, s *models.SlugMap) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateSlug"); err != nil {
		return err
	}
	if _, ok := m.slugs[s.Slug]; ok {
		return repository.ErrDuplicate
	}
	m.slugs[s.Slug] = s.MangaID
	return nil
}

func (m *memStore) SlugsFor(ctx context.Context, mangaID uuid.UUID) ([]string, error) {
	defer m.mu.Unlock()
	if err := m.enter("SlugsFor"); err != nil {
		return nil, err
	}
	var out []string
	for slug, id := range m.slugs {
		if id == mangaID {
			out = append(out, slug)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) DeleteSlugs(ctx context.Context, mangaID uuid.UUID) error {
	defer m.mu.Unlock()
	if err := m.enter("DeleteSlugs"); err != nil {
		return err
	}
	for slug, id := range m.slugs {
		if id == mangaID {
			delete(m.slugs, slug)
		}
	}
	return nil
}

func (m *memStore) CreatePages(ctx context.Context, pages []models.Page) error {
	defer m.mu.Unlock()
	if err := m.enter("CreatePages"); err != nil {
		return err
	}
	for _, p := range pages {
		if _, ok := m.pages[p.MangaID][p.PageNumber]; ok {
			return repository.ErrDuplicate
		}
	}
	for _, p := range pages {
		if m.pages[p.MangaID] == nil {
			m.pages[p.MangaID] = map[int]string{}
		}
		m.pages[p.MangaID][p.PageNumber] = p.ImageURL
	}
	return nil
}

func (m *memStore) DeletePages(ctx context.Context, mangaID uuid.UUID) error {
	defer m.mu.Unlock()
	if err := m.enter("DeletePages"); err != nil {
		return err
	}
	delete(m.pages, mangaID)
	return nil
}

func (m *memStore) FindEntityID(ctx context.Context, cat models.Category, name string) (int64, error) {
	defer m.mu.Unlock()
	if err := m.enter("FindEntityID"); err != nil {
		return 0, err
	}
	e, ok := m.entities[cat.Key][name]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return e.ID, nil
}

func (m *memStore) InsertEntity(ctx context.Context, cat models.Category, name, slug string) (int64, error) {
	defer m.mu.Unlock()
	if err := m.enter("InsertEntity"); err != nil {
		return 0, err
	}
	if m.entities[cat.Key] == nil {
		m.entities[cat.Key] = map[string]models.Entity{}
	}
	if m.raceOn[name] {
		delete(m.raceOn, name)
		m.nextID++
		m.entities[cat.Key][name] = models.Entity{ID: m.nextID, Name: name, Slug: slug}
		return 0, repository.ErrDuplicate
	}
	if _, ok := m.entities[cat.Key][name]; ok {
		return 0, repository.ErrDuplicate
	}
	m.nextID++
	m.entities[cat.Key][name] = models.Entity{ID: m.nextID, Name: name, Slug: slug}
	return m.nextID, nil
}

func (m *memStore) InsertLink(ctx context.Context, cat models.Category, mangaID uuid.UUID, entityID int64) error {
	defer m.mu.Unlock()
	if err := m.enter("InsertLink"); err != nil {
		return err
	}
	if m.links[cat.Key] == nil {
		m.links[cat.Key] = map[linkKey]struct{}{}
	}
	m.links[cat.Key][linkKey{mangaID, entityID}] = struct{}{}
	return nil
}

func (m *memStore) DeleteLinks(ctx context.Context, cat models.Category, mangaID uuid.UUID) error {
	defer m.mu.Unlock()
	if err := m.enter("DeleteLinks"); err != nil {
		return err
	}
	for k := range m.links[cat.Key] {
		if k.mangaID == mangaID {
			delete(m.links[cat.Key], k)
		}
	}
	return nil
}

// helpers for assertions

func (m *memStore) entityNames(cat models.Category) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for name := range m.entities[cat.Key] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *memStore) entityID(cat models.Category, name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entities[cat.Key][name].ID
}

func (m *memStore) linksFor(cat models.Category, mangaID uuid.UUID) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for k := range m.links[cat.Key] {
		if k.mangaID == mangaID {
			out = append(out, k.entityID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *memStore) linkCount(cat models.Category) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links[cat.Key])
}

func (m *memStore) pagesFor(mangaID uuid.UUID) map[int]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int]string{}
	for n, u := range m.pages[mangaID] {
		out[n] = u
	}
	return out
}

func (m *memStore) hasManga(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.manga[id]
	return ok
}

func (m *memStore) slugOwner(slug string) (uuid.UUID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.slugs[slug]
	return id, ok
}

func (m *memStore) mangaCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.manga)
}

func (m *memStore) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *memStore) setFail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[method] = err
}
