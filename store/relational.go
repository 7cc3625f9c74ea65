package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/stevemurr/content-builder/apperr"
	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/model"
	"github.com/stevemurr/content-builder/schema"
)

// GormBackend stores the three entity types in relational tables with
// cascading foreign keys. Multi-step mutations run in one transaction.
type GormBackend struct {
	db   *gorm.DB
	name string
	log  *logger.Logger
}

// gormWriter routes gorm's own log lines into the structured logger.
type gormWriter struct{ log *logger.Logger }

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn(fmt.Sprintf(format, args...))
}

func openGorm(name string, dialector gorm.Dialector, log *logger.Logger, maxConns int) (*GormBackend, error) {
	storeLog := log.With("component", "relational_store", "backend", name)
	gormLog := gormLogger.New(
		gormWriter{log: storeLog},
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog, TranslateError: true})
	if err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("connect %s: %w", name, err))
	}
	if maxConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, apperr.Unavailable(err)
		}
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns)
		sqlDB.SetConnMaxLifetime(0)
	}
	if err := db.AutoMigrate(&creatorRow{}, &setRow{}, &cardRow{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("migrate %s schema: %w", name, err)
	}
	storeLog.Debug("relational store ready")
	return &GormBackend{db: db, name: name, log: storeLog}, nil
}

func (b *GormBackend) Name() string           { return b.name }
func (b *GormBackend) Creators() CreatorStore { return &gormCreators{b: b} }
func (b *GormBackend) Sets() SetStore         { return &gormSets{b: b} }
func (b *GormBackend) Cards() CardStore       { return &gormCards{b: b} }

// Ping checks connectivity.
func (b *GormBackend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return apperr.Unavailable(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperr.Unavailable(err)
	}
	return nil
}

func (b *GormBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps driver and gorm errors onto the error taxonomy. Errors that
// already belong to it pass through unchanged.
func (b *GormBackend) translate(entity string, err error) error {
	if err == nil || apperr.Code(err) != "internal" {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.DuplicateKey(entity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Integrity(entity, "parent", "")
	case errors.Is(err, driver.ErrBadConn):
		return apperr.Unavailable(err)
	}
	if t := translatePostgres(entity, err); t != nil {
		return t
	}
	if t := translateSQLite(entity, err); t != nil {
		return t
	}
	return fmt.Errorf("%s: %w", entity, err)
}

// paginate applies offset-then-limit. An offset without a limit still needs a
// LIMIT clause on SQLite.
func paginate(q *gorm.DB, offset, limit int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	} else if offset > 0 {
		q = q.Limit(math.MaxInt32)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}

func exists(tx *gorm.DB, table any, column, id string) (bool, error) {
	var n int64
	if err := tx.Model(table).Where(column+" = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

const recountSQL = `UPDATE content_sets SET card_count = (
	SELECT COUNT(*) FROM content_cards WHERE content_cards.set_id = content_sets.set_id)`

// ---- creators ----

type gormCreators struct{ b *GormBackend }

func (s *gormCreators) List(ctx context.Context, f CreatorFilter) ([]model.Creator, error) {
	q := s.b.db.WithContext(ctx).Model(&creatorRow{})
	if f.WithContentOnly {
		q = q.Where("EXISTS (SELECT 1 FROM content_sets WHERE content_sets.creator_id = creators.creator_id)")
	}
	var rows []creatorRow
	if err := paginate(q.Order("created_at, creator_id"), f.Offset, f.Limit).Find(&rows).Error; err != nil {
		return nil, s.b.translate("creator", err)
	}
	out := make([]model.Creator, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *gormCreators) Get(ctx context.Context, id string) (*model.Creator, error) {
	return s.get(s.b.db.WithContext(ctx), id)
}

func (s *gormCreators) get(tx *gorm.DB, id string) (*model.Creator, error) {
	var row creatorRow
	if err := tx.Where("creator_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("creator", id)
		}
		return nil, s.b.translate("creator", err)
	}
	c, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *gormCreators) Create(ctx context.Context, in *model.Creator) (*model.Creator, error) {
	rec := *in
	prepareCreator(&rec)
	row, err := toCreatorRow(&rec)
	if err != nil {
		return nil, err
	}
	if err := s.b.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, s.b.translate("creator", err)
	}
	return &rec, nil
}

func (s *gormCreators) Update(ctx context.Context, id string, p model.CreatorPatch) (*model.Creator, error) {
	var out *model.Creator
	err := s.b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.get(tx, id)
		if err != nil {
			return err
		}
		p.Apply(c)
		row, err := toCreatorRow(c)
		if err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, s.b.translate("creator", err)
	}
	return out, nil
}

// Delete relies on the cascading foreign keys for sets and cards, then
// recounts surviving sets that held cards authored by this creator.
func (s *gormCreators) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := s.b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var touched []string
		if err := tx.Model(&cardRow{}).
			Where("creator_id = ? AND set_id NOT IN (?)", id,
				tx.Model(&setRow{}).Select("set_id").Where("creator_id = ?", id)).
			Distinct().Pluck("set_id", &touched).Error; err != nil {
			return err
		}
		res := tx.Where("creator_id = ?", id).Delete(&creatorRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		found = true
		if len(touched) > 0 {
			return tx.Exec(recountSQL+" WHERE set_id IN ?", touched).Error
		}
		return nil
	})
	if err != nil {
		return false, s.b.translate("creator", err)
	}
	return found, nil
}

func (s *gormCreators) Export(ctx context.Context, path string) (*ExportResult, error) {
	creators, err := s.List(ctx, CreatorFilter{})
	if err != nil {
		return nil, err
	}
	return exportRecords("creators", path, creators)
}

func (s *gormCreators) Schema() map[string]any {
	return schema.Describe("Creator", model.Creator{})
}

// ---- content sets ----

type gormSets struct{ b *GormBackend }

func (s *gormSets) List(ctx context.Context, f SetFilter) ([]model.ContentSet, error) {
	q := s.b.db.WithContext(ctx).Model(&setRow{})
	if f.CreatorID != "" {
		q = q.Where("creator_id = ?", f.CreatorID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var rows []setRow
	if err := paginate(q.Order("created_at, set_id"), f.Offset, f.Limit).Find(&rows).Error; err != nil {
		return nil, s.b.translate("content set", err)
	}
	out := make([]model.ContentSet, 0, len(rows))
	for i := range rows {
		set, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, set)
	}
	return out, nil
}

func (s *gormSets) Get(ctx context.Context, id string) (*model.ContentSet, error) {
	return s.get(s.b.db.WithContext(ctx), id)
}

func (s *gormSets) get(tx *gorm.DB, id string) (*model.ContentSet, error) {
	var row setRow
	if err := tx.Where("set_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("content set", id)
		}
		return nil, s.b.translate("content set", err)
	}
	set, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *gormSets) Create(ctx context.Context, in *model.ContentSet) (*model.ContentSet, error) {
	rec := *in
	prepareSet(&rec)
	row, err := toSetRow(&rec)
	if err != nil {
		return nil, err
	}
	err = s.b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &creatorRow{}, "creator_id", rec.CreatorID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Integrity("content set", "creator_id", rec.CreatorID)
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, s.b.translate("content set", err)
	}
	return &rec, nil
}

func (s *gormSets) Update(ctx context.Context, id string, p model.SetPatch) (*model.ContentSet, error) {
	var out *model.ContentSet
	err := s.b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		set, err := s.get(tx, id)
		if err != nil {
			return err
		}
		p.Apply(set)
		row, err := toSetRow(set)
		if err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		out = set
		return nil
	})
	if err != nil {
		return nil, s.b.translate("content set", err)
	}
	return out, nil
}

func (s *gormSets) Delete(ctx context.Context, id string) (bool, error) {
	res := s.b.db.WithContext(ctx).Where("set_id = ?", id).Delete(&setRow{})
	if res.Error != nil {
		return false, s.b.translate("content set", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormSets) RecountCards(ctx context.Context) error {
	if err := s.b.db.WithContext(ctx).Exec(recountSQL).Error; err != nil {
		return s.b.translate("content set", err)
	}
	return nil
}

func (s *gormSets) Export(ctx context.Context, path string) (*ExportResult, error) {
	sets, err := s.List(ctx, SetFilter{})
	if err != nil {
		return nil, err
	}
	return exportRecords("content_sets", path, sets)
}

func (s *gormSets) Schema() map[string]any {
	return schema.Describe("ContentSet", model.ContentSet{})
}

// ---- content cards ----

type gormCards struct{ b *GormBackend }

func (s *gormCards) List(ctx context.Context, f CardFilter) ([]model.ContentCard, error) {
	q := s.b.db.WithContext(ctx).Model(&cardRow{})
	if f.SetID != "" {
		q = q.Where("set_id = ?", f.SetID)
	}
	if f.CreatorID != "" {
		q = q.Where("creator_id = ?", f.CreatorID)
	}
	q = q.Order("set_id, order_index, created_at, card_id")
	var rows []cardRow
	if err := paginate(q, f.Offset, f.Limit).Find(&rows).Error; err != nil {
		return nil, s.b.translate("content card", err)
	}
	out := make([]model.ContentCard, 0, len(rows))
	for i := range rows {
		card, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, nil
}

func (s *gormCards) Get(ctx context.Context, id string) (*model.ContentCard, error) {
	return s.get(s.b.db.WithContext(ctx), id)
}

func (s *gormCards) get(tx *gorm.DB, id string) (*model.ContentCard, error) {
	var row cardRow
	if err := tx.Where("card_id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("content card", id)
		}
		return nil, s.b.translate("content card", err)
	}
	card, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// Create inserts the card and increments the set's card_count in one
// transaction. A non-positive order_index appends after the existing cards.
func (s *gormCards) Create(ctx context.Context, in *model.ContentCard) (*model.ContentCard, error) {
	rec := *in
	prepareCard(&rec)
	err := s.b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &setRow{}, "set_id", rec.SetID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Integrity("content card", "set_id", rec.SetID)
		}
		ok, err = exists(tx, &creatorRow{}, "creator_id", rec.CreatorID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Integrity("content card", "creator_id", rec.CreatorID)
		}
		if rec.OrderIndex <= 0 {
			var n int64
			if err := tx.Model(&cardRow{}).Where("set_id = ?", rec.SetID).Count(&n).Error; err != nil {
				return err
			}
			rec.OrderIndex = int(n) + 1
		}
		row, err := toCardRow(&rec)
		if err != nil {
			return err
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return tx.Model(&setRow{}).Where("set_id = ?", rec.SetID).
			UpdateColumn("card_count", gorm.Expr("card_count + 1")).Error
	})
	if err != nil {
		return nil, s.b.translate("content card", err)
	}
	return &rec, nil
}

func (s *gormCards) Update(ctx context.Context, id string, p model.CardPatch) (*model.ContentCard, error) {
	var out *model.ContentCard
	err := s.b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card, err := s.get(tx, id)
		if err != nil {
			return err
		}
		p.Apply(card)
		row, err := toCardRow(card)
		if err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		out = card
		return nil
	})
	if err != nil {
		return nil, s.b.translate("content card", err)
	}
	return out, nil
}

// Delete removes the card and decrements its set's card_count in one
// transaction.
func (s *gormCards) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := s.b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row cardRow
		err := tx.Where("card_id = ?", id).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&cardRow{}, "card_id = ?", id).Error; err != nil {
			return err
		}
		found = true
		return tx.Model(&setRow{}).Where("set_id = ? AND card_count > 0", row.SetID).
			UpdateColumn("card_count", gorm.Expr("card_count - 1")).Error
	})
	if err != nil {
		return false, s.b.translate("content card", err)
	}
	return found, nil
}

func (s *gormCards) Export(ctx context.Context, path string) (*ExportResult, error) {
	cards, err := s.List(ctx, CardFilter{})
	if err != nil {
		return nil, err
	}
	return exportRecords("cards", path, cards)
}

func (s *gormCards) Schema() map[string]any {
	return schema.Describe("ContentCard", model.ContentCard{})
}
