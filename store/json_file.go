package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/stevemurr/content-builder/apperr"
	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/model"
	"github.com/stevemurr/content-builder/schema"
)

// FileBackend stores each entity type as a JSON array in its own file.
//
// Layout:
//
//	data_dir/
//	  creators.json
//	  content_sets.json
//	  cards.json
//
// Every mutation reads the whole file, changes the record found by a linear
// scan on its id, and rewrites the whole file through a temp file and rename.
// The mutex only serialises writers inside this process. The backend is
// single-writer: two processes pointed at the same directory will race on the
// read-modify-write cycle and lose updates.
type FileBackend struct {
	mu  sync.RWMutex
	dir string
	log *logger.Logger
}

// NewFileBackend opens (and creates if needed) a data directory.
func NewFileBackend(dir string, log *logger.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("create data dir: %w", err))
	}
	return &FileBackend{dir: dir, log: log.With("component", "file_store", "dir", dir)}, nil
}

func (b *FileBackend) Name() string           { return "json" }
func (b *FileBackend) Creators() CreatorStore { return &fileCreators{b: b} }
func (b *FileBackend) Sets() SetStore         { return &fileSets{b: b} }
func (b *FileBackend) Cards() CardStore       { return &fileCards{b: b} }
func (b *FileBackend) Close() error           { return nil }

// Ping checks the data directory is still reachable.
func (b *FileBackend) Ping(ctx context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return apperr.Unavailable(err)
	}
	if !info.IsDir() {
		return apperr.Unavailable(fmt.Errorf("%s is not a directory", b.dir))
	}
	return nil
}

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.dir, name)
}

func (b *FileBackend) loadCreators() ([]model.Creator, error) {
	return readJSONArray[model.Creator](b.path(CreatorsFile))
}

func (b *FileBackend) loadSets() ([]model.ContentSet, error) {
	return readJSONArray[model.ContentSet](b.path(SetsFile))
}

func (b *FileBackend) loadCards() ([]model.ContentCard, error) {
	return readJSONArray[model.ContentCard](b.path(CardsFile))
}

func (b *FileBackend) saveCreators(cs []model.Creator) error {
	return writeJSONAtomic(b.path(CreatorsFile), cs)
}

func (b *FileBackend) saveSets(ss []model.ContentSet) error {
	return writeJSONAtomic(b.path(SetsFile), ss)
}

func (b *FileBackend) saveCards(cs []model.ContentCard) error {
	return writeJSONAtomic(b.path(CardsFile), cs)
}

// ---- creators ----

type fileCreators struct{ b *FileBackend }

func (s *fileCreators) List(ctx context.Context, f CreatorFilter) ([]model.Creator, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	creators, err := s.b.loadCreators()
	if err != nil {
		return nil, err
	}
	if f.WithContentOnly {
		sets, err := s.b.loadSets()
		if err != nil {
			return nil, err
		}
		owners := make(map[string]bool, len(sets))
		for _, set := range sets {
			owners[set.CreatorID] = true
		}
		kept := creators[:0]
		for _, c := range creators {
			if owners[c.CreatorID] {
				kept = append(kept, c)
			}
		}
		creators = kept
	}
	sortCreators(creators)
	return page(creators, f.Offset, f.Limit), nil
}

func (s *fileCreators) Get(ctx context.Context, id string) (*model.Creator, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	creators, err := s.b.loadCreators()
	if err != nil {
		return nil, err
	}
	for i := range creators {
		if creators[i].CreatorID == id {
			return &creators[i], nil
		}
	}
	return nil, apperr.NotFound("creator", id)
}

func (s *fileCreators) Create(ctx context.Context, in *model.Creator) (*model.Creator, error) {
	rec := *in
	prepareCreator(&rec)

	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	creators, err := s.b.loadCreators()
	if err != nil {
		return nil, err
	}
	for _, c := range creators {
		if c.CreatorID == rec.CreatorID {
			return nil, apperr.DuplicateKey("creator")
		}
	}
	if err := s.b.saveCreators(append(creators, rec)); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *fileCreators) Update(ctx context.Context, id string, p model.CreatorPatch) (*model.Creator, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	creators, err := s.b.loadCreators()
	if err != nil {
		return nil, err
	}
	for i := range creators {
		if creators[i].CreatorID != id {
			continue
		}
		p.Apply(&creators[i])
		if err := s.b.saveCreators(creators); err != nil {
			return nil, err
		}
		out := creators[i]
		return &out, nil
	}
	return nil, apperr.NotFound("creator", id)
}

// Delete removes the creator, every set it owns and every card that belongs
// to it or to one of those sets. Files are rewritten children first so an
// interrupted delete leaves no orphans.
func (s *fileCreators) Delete(ctx context.Context, id string) (bool, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	creators, err := s.b.loadCreators()
	if err != nil {
		return false, err
	}
	idx := -1
	for i, c := range creators {
		if c.CreatorID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	sets, err := s.b.loadSets()
	if err != nil {
		return false, err
	}
	cards, err := s.b.loadCards()
	if err != nil {
		return false, err
	}

	removedSets := map[string]bool{}
	keptSets := make([]model.ContentSet, 0, len(sets))
	for _, set := range sets {
		if set.CreatorID == id {
			removedSets[set.SetID] = true
			continue
		}
		keptSets = append(keptSets, set)
	}
	touched := map[string]bool{}
	keptCards := make([]model.ContentCard, 0, len(cards))
	for _, card := range cards {
		if removedSets[card.SetID] {
			continue
		}
		if card.CreatorID == id {
			touched[card.SetID] = true
			continue
		}
		keptCards = append(keptCards, card)
	}
	if len(touched) > 0 {
		counts := countBySet(keptCards)
		for i := range keptSets {
			if touched[keptSets[i].SetID] {
				keptSets[i].CardCount = counts[keptSets[i].SetID]
			}
		}
	}

	if err := s.b.saveCards(keptCards); err != nil {
		return false, err
	}
	if err := s.b.saveSets(keptSets); err != nil {
		return false, err
	}
	if err := s.b.saveCreators(append(creators[:idx], creators[idx+1:]...)); err != nil {
		return false, err
	}
	s.b.log.Debug("creator deleted", "creator_id", id,
		"sets_removed", len(removedSets), "cards_removed", len(cards)-len(keptCards))
	return true, nil
}

func (s *fileCreators) Export(ctx context.Context, path string) (*ExportResult, error) {
	s.b.mu.RLock()
	creators, err := s.b.loadCreators()
	s.b.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	sortCreators(creators)
	return exportRecords("creators", path, creators)
}

func (s *fileCreators) Schema() map[string]any {
	return schema.Describe("Creator", model.Creator{})
}

// ---- content sets ----

type fileSets struct{ b *FileBackend }

func (s *fileSets) List(ctx context.Context, f SetFilter) ([]model.ContentSet, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	sets, err := s.b.loadSets()
	if err != nil {
		return nil, err
	}
	kept := sets[:0]
	for _, set := range sets {
		if f.CreatorID != "" && set.CreatorID != f.CreatorID {
			continue
		}
		if f.Status != "" && set.Status != f.Status {
			continue
		}
		kept = append(kept, set)
	}
	sortSets(kept)
	return page(kept, f.Offset, f.Limit), nil
}

func (s *fileSets) Get(ctx context.Context, id string) (*model.ContentSet, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	sets, err := s.b.loadSets()
	if err != nil {
		return nil, err
	}
	for i := range sets {
		if sets[i].SetID == id {
			return &sets[i], nil
		}
	}
	return nil, apperr.NotFound("content set", id)
}

func (s *fileSets) Create(ctx context.Context, in *model.ContentSet) (*model.ContentSet, error) {
	rec := *in
	prepareSet(&rec)

	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	creators, err := s.b.loadCreators()
	if err != nil {
		return nil, err
	}
	if !containsCreator(creators, rec.CreatorID) {
		return nil, apperr.Integrity("content set", "creator_id", rec.CreatorID)
	}
	sets, err := s.b.loadSets()
	if err != nil {
		return nil, err
	}
	for _, set := range sets {
		if set.SetID == rec.SetID {
			return nil, apperr.DuplicateKey("content set")
		}
	}
	if err := s.b.saveSets(append(sets, rec)); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *fileSets) Update(ctx context.Context, id string, p model.SetPatch) (*model.ContentSet, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	sets, err := s.b.loadSets()
	if err != nil {
		return nil, err
	}
	for i := range sets {
		if sets[i].SetID != id {
			continue
		}
		p.Apply(&sets[i])
		if err := s.b.saveSets(sets); err != nil {
			return nil, err
		}
		out := sets[i]
		return &out, nil
	}
	return nil, apperr.NotFound("content set", id)
}

func (s *fileSets) Delete(ctx context.Context, id string) (bool, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	sets, err := s.b.loadSets()
	if err != nil {
		return false, err
	}
	idx := -1
	for i, set := range sets {
		if set.SetID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	cards, err := s.b.loadCards()
	if err != nil {
		return false, err
	}
	kept := make([]model.ContentCard, 0, len(cards))
	for _, card := range cards {
		if card.SetID != id {
			kept = append(kept, card)
		}
	}
	if err := s.b.saveCards(kept); err != nil {
		return false, err
	}
	if err := s.b.saveSets(append(sets[:idx], sets[idx+1:]...)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *fileSets) RecountCards(ctx context.Context) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	sets, err := s.b.loadSets()
	if err != nil {
		return err
	}
	cards, err := s.b.loadCards()
	if err != nil {
		return err
	}
	counts := countBySet(cards)
	for i := range sets {
		sets[i].CardCount = counts[sets[i].SetID]
	}
	return s.b.saveSets(sets)
}

func (s *fileSets) Export(ctx context.Context, path string) (*ExportResult, error) {
	s.b.mu.RLock()
	sets, err := s.b.loadSets()
	s.b.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	sortSets(sets)
	return exportRecords("content_sets", path, sets)
}

func (s *fileSets) Schema() map[string]any {
	return schema.Describe("ContentSet", model.ContentSet{})
}

// ---- content cards ----

type fileCards struct{ b *FileBackend }

func (s *fileCards) List(ctx context.Context, f CardFilter) ([]model.ContentCard, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	cards, err := s.b.loadCards()
	if err != nil {
		return nil, err
	}
	kept := cards[:0]
	for _, card := range cards {
		if f.SetID != "" && card.SetID != f.SetID {
			continue
		}
		if f.CreatorID != "" && card.CreatorID != f.CreatorID {
			continue
		}
		kept = append(kept, card)
	}
	sortCards(kept)
	return page(kept, f.Offset, f.Limit), nil
}

func (s *fileCards) Get(ctx context.Context, id string) (*model.ContentCard, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	cards, err := s.b.loadCards()
	if err != nil {
		return nil, err
	}
	for i := range cards {
		if cards[i].CardID == id {
			return &cards[i], nil
		}
	}
	return nil, apperr.NotFound("content card", id)
}

// Create appends the card and bumps its set's card_count. If the sets file
// cannot be rewritten the cards file is restored so the two stay in step.
func (s *fileCards) Create(ctx context.Context, in *model.ContentCard) (*model.ContentCard, error) {
	rec := *in
	prepareCard(&rec)

	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	sets, err := s.b.loadSets()
	if err != nil {
		return nil, err
	}
	setIdx := -1
	for i := range sets {
		if sets[i].SetID == rec.SetID {
			setIdx = i
			break
		}
	}
	if setIdx < 0 {
		return nil, apperr.Integrity("content card", "set_id", rec.SetID)
	}
	creators, err := s.b.loadCreators()
	if err != nil {
		return nil, err
	}
	if !containsCreator(creators, rec.CreatorID) {
		return nil, apperr.Integrity("content card", "creator_id", rec.CreatorID)
	}
	cards, err := s.b.loadCards()
	if err != nil {
		return nil, err
	}
	inSet := 0
	for _, card := range cards {
		if card.CardID == rec.CardID {
			return nil, apperr.DuplicateKey("content card")
		}
		if card.SetID == rec.SetID {
			inSet++
		}
	}
	if rec.OrderIndex <= 0 {
		rec.OrderIndex = inSet + 1
	}

	before := append([]model.ContentCard(nil), cards...)
	if err := s.b.saveCards(append(cards, rec)); err != nil {
		return nil, err
	}
	sets[setIdx].CardCount++
	if err := s.b.saveSets(sets); err != nil {
		if rbErr := s.b.saveCards(before); rbErr != nil {
			s.b.log.Error("card create rollback failed", "card_id", rec.CardID, "error", rbErr)
		}
		return nil, err
	}
	return &rec, nil
}

func (s *fileCards) Update(ctx context.Context, id string, p model.CardPatch) (*model.ContentCard, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	cards, err := s.b.loadCards()
	if err != nil {
		return nil, err
	}
	for i := range cards {
		if cards[i].CardID != id {
			continue
		}
		p.Apply(&cards[i])
		if err := s.b.saveCards(cards); err != nil {
			return nil, err
		}
		out := cards[i]
		return &out, nil
	}
	return nil, apperr.NotFound("content card", id)
}

// Delete removes the card and decrements its set's card_count, restoring the
// cards file if the sets file cannot be rewritten.
func (s *fileCards) Delete(ctx context.Context, id string) (bool, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	cards, err := s.b.loadCards()
	if err != nil {
		return false, err
	}
	idx := -1
	for i, card := range cards {
		if card.CardID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	setID := cards[idx].SetID
	sets, err := s.b.loadSets()
	if err != nil {
		return false, err
	}

	before := append([]model.ContentCard(nil), cards...)
	if err := s.b.saveCards(append(cards[:idx], cards[idx+1:]...)); err != nil {
		return false, err
	}
	for i := range sets {
		if sets[i].SetID == setID && sets[i].CardCount > 0 {
			sets[i].CardCount--
		}
	}
	if err := s.b.saveSets(sets); err != nil {
		if rbErr := s.b.saveCards(before); rbErr != nil {
			s.b.log.Error("card delete rollback failed", "card_id", id, "error", rbErr)
		}
		return false, err
	}
	return true, nil
}

func (s *fileCards) Export(ctx context.Context, path string) (*ExportResult, error) {
	s.b.mu.RLock()
	cards, err := s.b.loadCards()
	s.b.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	sortCards(cards)
	return exportRecords("cards", path, cards)
}

func (s *fileCards) Schema() map[string]any {
	return schema.Describe("ContentCard", model.ContentCard{})
}

func containsCreator(creators []model.Creator, id string) bool {
	for _, c := range creators {
		if c.CreatorID == id {
			return true
		}
	}
	return false
}

func countBySet(cards []model.ContentCard) map[string]int {
	counts := make(map[string]int, len(cards))
	for _, card := range cards {
		counts[card.SetID]++
	}
	return counts
}
