// Package store defines the storage contract for creators, content sets and
// content cards, and the interchangeable backends that implement it.
package store

import (
	"context"

	"github.com/stevemurr/content-builder/model"
)

// CreatorFilter narrows a creator listing. Limit 0 means unlimited.
type CreatorFilter struct {
	Limit  int
	Offset int
	// WithContentOnly keeps only creators that own at least one set.
	WithContentOnly bool
}

// SetFilter narrows a set listing. Empty strings match everything.
type SetFilter struct {
	CreatorID string
	Status    string
	Limit     int
	Offset    int
}

// CardFilter narrows a card listing. Results are ordered by order_index.
type CardFilter struct {
	CreatorID string
	SetID     string
	Limit     int
	Offset    int
}

// ExportResult summarises one entity file written by Export.
type ExportResult struct {
	Entity string `json:"entity"`
	Path   string `json:"path"`
	Count  int    `json:"count"`
}

// EntityStore is the operation set every backend implements for one entity
// type. Get and Update return an apperr.NotFoundError for unknown ids; Delete
// reports whether the record existed.
type EntityStore[T any, P any, F any] interface {
	List(ctx context.Context, filter F) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, rec *T) (*T, error)
	Update(ctx context.Context, id string, patch P) (*T, error)
	Delete(ctx context.Context, id string) (bool, error)

	// Export writes every record as a JSON array to path.
	Export(ctx context.Context, path string) (*ExportResult, error)

	// Schema describes the record shape as JSON Schema.
	Schema() map[string]any
}

// CreatorStore persists creators. Deleting a creator cascades to its sets
// and cards.
type CreatorStore interface {
	EntityStore[model.Creator, model.CreatorPatch, CreatorFilter]
}

// SetStore persists content sets. Deleting a set cascades to its cards.
type SetStore interface {
	EntityStore[model.ContentSet, model.SetPatch, SetFilter]

	// RecountCards recomputes card_count for every set from the live cards.
	RecountCards(ctx context.Context) error
}

// CardStore persists content cards. Create and Delete keep the owning set's
// card_count in step with the card write.
type CardStore interface {
	EntityStore[model.ContentCard, model.CardPatch, CardFilter]
}

// Backend bundles the three entity stores over one persisted store.
type Backend interface {
	Name() string
	Creators() CreatorStore
	Sets() SetStore
	Cards() CardStore
	Ping(ctx context.Context) error
	Close() error
}

// Entity file names shared by the file backend and the export format.
const (
	CreatorsFile = "creators.json"
	SetsFile     = "content_sets.json"
	CardsFile    = "cards.json"
	MetadataFile = "export_metadata.json"
)

// page applies offset-then-limit to an already filtered slice.
func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// prepareCreator assigns an id, defaults and timestamps to a new creator.
func prepareCreator(c *model.Creator) {
	if c.CreatorID == "" {
		c.CreatorID = model.NewCreatorID(c.DisplayName, c.Platforms)
	}
	model.Stamp(&c.CreatedAt, &c.UpdatedAt)
	c.ApplyDefaults()
}

func prepareSet(s *model.ContentSet) {
	if s.SetID == "" {
		s.SetID = model.NewSetID()
	}
	s.CardCount = 0
	model.Stamp(&s.CreatedAt, &s.UpdatedAt)
	s.ApplyDefaults()
}

func prepareCard(c *model.ContentCard) {
	if c.CardID == "" {
		c.CardID = model.NewCardID()
	}
	model.Stamp(&c.CreatedAt, &c.UpdatedAt)
	c.Normalize()
}
