package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/stevemurr/content-builder/model"
)

// Relational rows. List and map fields live in JSON columns; the foreign keys
// carry ON DELETE CASCADE so removing a creator or set removes its children
// inside the same statement.

type creatorRow struct {
	CreatorID      string         `gorm:"column:creator_id;primaryKey"`
	DisplayName    string         `gorm:"column:display_name;not null"`
	Platforms      datatypes.JSON `gorm:"column:platforms"`
	AvatarURL      string         `gorm:"column:avatar_url"`
	BannerURL      string         `gorm:"column:banner_url"`
	Description    string         `gorm:"column:description"`
	Categories     datatypes.JSON `gorm:"column:categories"`
	FollowerCount  *int           `gorm:"column:follower_count"`
	Verified       bool           `gorm:"column:verified;not null;default:false"`
	SocialLinks    datatypes.JSON `gorm:"column:social_links"`
	ExpertiseAreas datatypes.JSON `gorm:"column:expertise_areas"`
	ContentStyle   string         `gorm:"column:content_style"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null;index;autoCreateTime:false"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;not null;autoUpdateTime:false"`

	// Has-many associations put the foreign keys on the child tables. They
	// are never loaded or saved, only used by AutoMigrate.
	Sets  []setRow  `gorm:"foreignKey:CreatorID;references:CreatorID;constraint:OnDelete:CASCADE"`
	Cards []cardRow `gorm:"foreignKey:CreatorID;references:CreatorID;constraint:OnDelete:CASCADE"`
}

func (creatorRow) TableName() string { return "creators" }

type setRow struct {
	SetID                string         `gorm:"column:set_id;primaryKey"`
	CreatorID            string         `gorm:"column:creator_id;not null;index"`
	Title                string         `gorm:"column:title;not null"`
	Description          string         `gorm:"column:description"`
	Category             string         `gorm:"column:category;not null;index"`
	ThumbnailURL         string         `gorm:"column:thumbnail_url"`
	BannerURL            string         `gorm:"column:banner_url"`
	CardCount            int            `gorm:"column:card_count;not null;default:0"`
	EstimatedTimeMinutes int            `gorm:"column:estimated_time_minutes"`
	DifficultyLevel      string         `gorm:"column:difficulty_level"`
	TargetAudience       string         `gorm:"column:target_audience"`
	SupportedNavigation  datatypes.JSON `gorm:"column:supported_navigation"`
	ContentStyle         string         `gorm:"column:content_style"`
	Tags                 datatypes.JSON `gorm:"column:tags"`
	Prerequisites        datatypes.JSON `gorm:"column:prerequisites"`
	LearningOutcomes     datatypes.JSON `gorm:"column:learning_outcomes"`
	Stats                datatypes.JSON `gorm:"column:stats"`
	Status               string         `gorm:"column:status;index"`
	Language             string         `gorm:"column:language"`
	CreatedAt            time.Time      `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;not null;autoUpdateTime:false"`

	Cards []cardRow `gorm:"foreignKey:SetID;references:SetID;constraint:OnDelete:CASCADE"`
}

func (setRow) TableName() string { return "content_sets" }

type cardRow struct {
	CardID             string         `gorm:"column:card_id;primaryKey"`
	SetID              string         `gorm:"column:set_id;not null;index:idx_cards_set_order,priority:1"`
	CreatorID          string         `gorm:"column:creator_id;not null;index"`
	Title              string         `gorm:"column:title;not null"`
	Summary            string         `gorm:"column:summary;not null"`
	DetailedContent    string         `gorm:"column:detailed_content"`
	OrderIndex         int            `gorm:"column:order_index;not null;index:idx_cards_set_order,priority:2"`
	DomainData         datatypes.JSON `gorm:"column:domain_data"`
	Media              datatypes.JSON `gorm:"column:media"`
	NavigationContexts datatypes.JSON `gorm:"column:navigation_contexts"`
	Tags               datatypes.JSON `gorm:"column:tags"`
	CreatedAt          time.Time      `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (cardRow) TableName() string { return "content_cards" }

// encodeColumns marshals each (dst, value) pair into its JSON column.
func encodeColumns(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		dst := pairs[i].(*datatypes.JSON)
		raw, err := json.Marshal(pairs[i+1])
		if err != nil {
			return fmt.Errorf("encode json column: %w", err)
		}
		*dst = datatypes.JSON(raw)
	}
	return nil
}

// decodeColumns unmarshals each (column, dst) pair. Empty and null columns
// leave dst untouched.
func decodeColumns(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		raw := pairs[i].(datatypes.JSON)
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, pairs[i+1]); err != nil {
			return fmt.Errorf("decode json column: %w", err)
		}
	}
	return nil
}

func toCreatorRow(c *model.Creator) (*creatorRow, error) {
	row := &creatorRow{
		CreatorID:     c.CreatorID,
		DisplayName:   c.DisplayName,
		AvatarURL:     c.AvatarURL,
		BannerURL:     c.BannerURL,
		Description:   c.Description,
		FollowerCount: c.FollowerCount,
		Verified:      c.Verified,
		ContentStyle:  c.ContentStyle,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	err := encodeColumns(
		&row.Platforms, c.Platforms,
		&row.Categories, c.Categories,
		&row.SocialLinks, c.SocialLinks,
		&row.ExpertiseAreas, c.ExpertiseAreas,
	)
	return row, err
}

func (r *creatorRow) toModel() (model.Creator, error) {
	c := model.Creator{
		CreatorID:     r.CreatorID,
		DisplayName:   r.DisplayName,
		AvatarURL:     r.AvatarURL,
		BannerURL:     r.BannerURL,
		Description:   r.Description,
		FollowerCount: r.FollowerCount,
		Verified:      r.Verified,
		ContentStyle:  r.ContentStyle,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	err := decodeColumns(
		r.Platforms, &c.Platforms,
		r.Categories, &c.Categories,
		r.SocialLinks, &c.SocialLinks,
		r.ExpertiseAreas, &c.ExpertiseAreas,
	)
	c.Normalize()
	return c, err
}

func toSetRow(s *model.ContentSet) (*setRow, error) {
	row := &setRow{
		SetID:                s.SetID,
		CreatorID:            s.CreatorID,
		Title:                s.Title,
		Description:          s.Description,
		Category:             s.Category,
		ThumbnailURL:         s.ThumbnailURL,
		BannerURL:            s.BannerURL,
		CardCount:            s.CardCount,
		EstimatedTimeMinutes: s.EstimatedTimeMinutes,
		DifficultyLevel:      s.DifficultyLevel,
		TargetAudience:       s.TargetAudience,
		ContentStyle:         s.ContentStyle,
		Status:               s.Status,
		Language:             s.Language,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
	err := encodeColumns(
		&row.SupportedNavigation, s.SupportedNavigation,
		&row.Tags, s.Tags,
		&row.Prerequisites, s.Prerequisites,
		&row.LearningOutcomes, s.LearningOutcomes,
		&row.Stats, s.Stats,
	)
	return row, err
}

func (r *setRow) toModel() (model.ContentSet, error) {
	s := model.ContentSet{
		SetID:                r.SetID,
		CreatorID:            r.CreatorID,
		Title:                r.Title,
		Description:          r.Description,
		Category:             r.Category,
		ThumbnailURL:         r.ThumbnailURL,
		BannerURL:            r.BannerURL,
		CardCount:            r.CardCount,
		EstimatedTimeMinutes: r.EstimatedTimeMinutes,
		DifficultyLevel:      r.DifficultyLevel,
		TargetAudience:       r.TargetAudience,
		ContentStyle:         r.ContentStyle,
		Status:               r.Status,
		Language:             r.Language,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	err := decodeColumns(
		r.SupportedNavigation, &s.SupportedNavigation,
		r.Tags, &s.Tags,
		r.Prerequisites, &s.Prerequisites,
		r.LearningOutcomes, &s.LearningOutcomes,
		r.Stats, &s.Stats,
	)
	s.Normalize()
	return s, err
}

func toCardRow(c *model.ContentCard) (*cardRow, error) {
	row := &cardRow{
		CardID:          c.CardID,
		SetID:           c.SetID,
		CreatorID:       c.CreatorID,
		Title:           c.Title,
		Summary:         c.Summary,
		DetailedContent: c.DetailedContent,
		OrderIndex:      c.OrderIndex,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	err := encodeColumns(
		&row.DomainData, c.DomainData,
		&row.Media, c.Media,
		&row.NavigationContexts, c.NavigationContexts,
		&row.Tags, c.Tags,
	)
	return row, err
}

func (r *cardRow) toModel() (model.ContentCard, error) {
	c := model.ContentCard{
		CardID:          r.CardID,
		SetID:           r.SetID,
		CreatorID:       r.CreatorID,
		Title:           r.Title,
		Summary:         r.Summary,
		DetailedContent: r.DetailedContent,
		OrderIndex:      r.OrderIndex,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	err := decodeColumns(
		r.DomainData, &c.DomainData,
		r.Media, &c.Media,
		r.NavigationContexts, &c.NavigationContexts,
		r.Tags, &c.Tags,
	)
	c.Normalize()
	return c, err
}
