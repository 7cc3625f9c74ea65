package model

import "time"

// Defaults applied on create when a field is left empty.
const (
	DefaultCreatorStyle     = "educational"
	DefaultSetStyle         = "question_first"
	DefaultDifficulty       = "intermediate"
	DefaultTargetAudience   = "general_public"
	DefaultSetStatus        = "draft"
	DefaultLanguage         = "pt-BR"
	DefaultEstimatedMinutes = 30
)

// Now is the store clock: UTC with microsecond precision so every backend
// round-trips the same value.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// CanonicalTime normalises a timestamp read back from a store.
func CanonicalTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Normalize replaces nil collections with empty ones so both backends encode
// "[]" and "{}" instead of null.
func (c *Creator) Normalize() {
	if c.Platforms == nil {
		c.Platforms = []Platform{}
	}
	if c.Categories == nil {
		c.Categories = []string{}
	}
	if c.SocialLinks == nil {
		c.SocialLinks = map[string]string{}
	}
	if c.ExpertiseAreas == nil {
		c.ExpertiseAreas = []string{}
	}
	c.CreatedAt = CanonicalTime(c.CreatedAt)
	c.UpdatedAt = CanonicalTime(c.UpdatedAt)
}

// ApplyDefaults fills fields a create payload may omit.
func (c *Creator) ApplyDefaults() {
	if c.ContentStyle == "" {
		c.ContentStyle = DefaultCreatorStyle
	}
	c.Normalize()
}

// Normalize replaces nil collections with empty ones.
func (s *ContentSet) Normalize() {
	if s.SupportedNavigation == nil {
		s.SupportedNavigation = []string{}
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.Prerequisites == nil {
		s.Prerequisites = []string{}
	}
	if s.LearningOutcomes == nil {
		s.LearningOutcomes = []string{}
	}
	if s.Stats == nil {
		s.Stats = map[string]any{}
	}
	s.CreatedAt = CanonicalTime(s.CreatedAt)
	s.UpdatedAt = CanonicalTime(s.UpdatedAt)
}

// ApplyDefaults fills fields a create payload may omit.
func (s *ContentSet) ApplyDefaults() {
	if s.DifficultyLevel == "" {
		s.DifficultyLevel = DefaultDifficulty
	}
	if s.TargetAudience == "" {
		s.TargetAudience = DefaultTargetAudience
	}
	if s.ContentStyle == "" {
		s.ContentStyle = DefaultSetStyle
	}
	if s.Status == "" {
		s.Status = DefaultSetStatus
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.EstimatedTimeMinutes == 0 {
		s.EstimatedTimeMinutes = DefaultEstimatedMinutes
	}
	s.Normalize()
}

// Normalize replaces nil collections with empty ones.
func (c *ContentCard) Normalize() {
	if c.DomainData == nil {
		c.DomainData = map[string]any{}
	}
	if c.Media == nil {
		c.Media = []Media{}
	}
	if c.NavigationContexts == nil {
		c.NavigationContexts = map[string]NavigationContext{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.CreatedAt = CanonicalTime(c.CreatedAt)
	c.UpdatedAt = CanonicalTime(c.UpdatedAt)
}

// Stamp sets created_at/updated_at to now when they are zero.
func Stamp(created, updated *time.Time) {
	now := Now()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}
