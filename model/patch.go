package model

import (
	"strings"

	"github.com/stevemurr/content-builder/apperr"
)

// Patch types carry only the fields a caller may change. A nil scalar pointer
// or a nil slice/map means "leave unchanged"; ids, foreign keys and derived
// counters have no patch field at all.

// CreatorPatch is a partial update of a Creator.
type CreatorPatch struct {
	DisplayName    *string           `json:"display_name,omitempty"`
	Platforms      []Platform        `json:"platforms,omitempty"`
	AvatarURL      *string           `json:"avatar_url,omitempty"`
	BannerURL      *string           `json:"banner_url,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Categories     []string          `json:"categories,omitempty"`
	FollowerCount  *int              `json:"follower_count,omitempty"`
	Verified       *bool             `json:"verified,omitempty"`
	SocialLinks    map[string]string `json:"social_links,omitempty"`
	ExpertiseAreas []string          `json:"expertise_areas,omitempty"`
	ContentStyle   *string           `json:"content_style,omitempty"`
}

// Validate checks the supplied fields and normalises platforms in place.
func (p *CreatorPatch) Validate() error {
	if p.DisplayName != nil && strings.TrimSpace(*p.DisplayName) == "" {
		return apperr.Validation("display_name", *p.DisplayName, "display_name cannot be empty")
	}
	if p.FollowerCount != nil && *p.FollowerCount < 0 {
		return apperr.Validation("follower_count", *p.FollowerCount, "follower_count must be non-negative")
	}
	if p.Platforms != nil {
		platforms, err := NormalizePlatforms(p.Platforms)
		if err != nil {
			return err
		}
		p.Platforms = platforms
	}
	return nil
}

// Apply overlays the supplied fields onto c and refreshes UpdatedAt.
func (p CreatorPatch) Apply(c *Creator) {
	setString(&c.DisplayName, p.DisplayName)
	setString(&c.AvatarURL, p.AvatarURL)
	setString(&c.BannerURL, p.BannerURL)
	setString(&c.Description, p.Description)
	setString(&c.ContentStyle, p.ContentStyle)
	if p.Platforms != nil {
		c.Platforms = p.Platforms
	}
	if p.Categories != nil {
		c.Categories = p.Categories
	}
	if p.FollowerCount != nil {
		v := *p.FollowerCount
		c.FollowerCount = &v
	}
	if p.Verified != nil {
		c.Verified = *p.Verified
	}
	if p.SocialLinks != nil {
		c.SocialLinks = p.SocialLinks
	}
	if p.ExpertiseAreas != nil {
		c.ExpertiseAreas = p.ExpertiseAreas
	}
	c.UpdatedAt = Now()
}

// SetPatch is a partial update of a ContentSet. card_count is derived and
// cannot be patched.
type SetPatch struct {
	Title                *string        `json:"title,omitempty"`
	Description          *string        `json:"description,omitempty"`
	Category             *string        `json:"category,omitempty"`
	ThumbnailURL         *string        `json:"thumbnail_url,omitempty"`
	BannerURL            *string        `json:"banner_url,omitempty"`
	EstimatedTimeMinutes *int           `json:"estimated_time_minutes,omitempty"`
	DifficultyLevel      *string        `json:"difficulty_level,omitempty"`
	TargetAudience       *string        `json:"target_audience,omitempty"`
	SupportedNavigation  []string       `json:"supported_navigation,omitempty"`
	ContentStyle         *string        `json:"content_style,omitempty"`
	Tags                 []string       `json:"tags,omitempty"`
	Prerequisites        []string       `json:"prerequisites,omitempty"`
	LearningOutcomes     []string       `json:"learning_outcomes,omitempty"`
	Stats                map[string]any `json:"stats,omitempty"`
	Status               *string        `json:"status,omitempty"`
	Language             *string        `json:"language,omitempty"`
}

// Validate rejects blanking required fields.
func (p *SetPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return apperr.Validation("title", *p.Title, "title cannot be empty")
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return apperr.Validation("category", *p.Category, "category cannot be empty")
	}
	if p.EstimatedTimeMinutes != nil && *p.EstimatedTimeMinutes < 0 {
		return apperr.Validation("estimated_time_minutes", *p.EstimatedTimeMinutes, "estimated_time_minutes must be non-negative")
	}
	return nil
}

// Apply overlays the supplied fields onto s and refreshes UpdatedAt.
func (p SetPatch) Apply(s *ContentSet) {
	setString(&s.Title, p.Title)
	setString(&s.Description, p.Description)
	setString(&s.Category, p.Category)
	setString(&s.ThumbnailURL, p.ThumbnailURL)
	setString(&s.BannerURL, p.BannerURL)
	setString(&s.DifficultyLevel, p.DifficultyLevel)
	setString(&s.TargetAudience, p.TargetAudience)
	setString(&s.ContentStyle, p.ContentStyle)
	setString(&s.Status, p.Status)
	setString(&s.Language, p.Language)
	if p.EstimatedTimeMinutes != nil {
		s.EstimatedTimeMinutes = *p.EstimatedTimeMinutes
	}
	if p.SupportedNavigation != nil {
		s.SupportedNavigation = p.SupportedNavigation
	}
	if p.Tags != nil {
		s.Tags = p.Tags
	}
	if p.Prerequisites != nil {
		s.Prerequisites = p.Prerequisites
	}
	if p.LearningOutcomes != nil {
		s.LearningOutcomes = p.LearningOutcomes
	}
	if p.Stats != nil {
		s.Stats = p.Stats
	}
	s.UpdatedAt = Now()
}

// CardPatch is a partial update of a ContentCard. Cards cannot move between
// sets or creators through a patch.
type CardPatch struct {
	Title              *string                      `json:"title,omitempty"`
	Summary            *string                      `json:"summary,omitempty"`
	DetailedContent    *string                      `json:"detailed_content,omitempty"`
	OrderIndex         *int                         `json:"order_index,omitempty"`
	DomainData         map[string]any               `json:"domain_data,omitempty"`
	Media              []Media                      `json:"media,omitempty"`
	NavigationContexts map[string]NavigationContext `json:"navigation_contexts,omitempty"`
	Tags               []string                     `json:"tags,omitempty"`
}

// Validate rejects blanking required fields.
func (p *CardPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return apperr.Validation("title", *p.Title, "title cannot be empty")
	}
	if p.Summary != nil && strings.TrimSpace(*p.Summary) == "" {
		return apperr.Validation("summary", *p.Summary, "summary cannot be empty")
	}
	return nil
}

// Apply overlays the supplied fields onto c and refreshes UpdatedAt.
func (p CardPatch) Apply(c *ContentCard) {
	setString(&c.Title, p.Title)
	setString(&c.Summary, p.Summary)
	setString(&c.DetailedContent, p.DetailedContent)
	if p.OrderIndex != nil {
		c.OrderIndex = *p.OrderIndex
	}
	if p.DomainData != nil {
		c.DomainData = p.DomainData
	}
	if p.Media != nil {
		c.Media = p.Media
	}
	if p.NavigationContexts != nil {
		c.NavigationContexts = p.NavigationContexts
	}
	if p.Tags != nil {
		c.Tags = p.Tags
	}
	c.UpdatedAt = Now()
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
