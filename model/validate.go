package model

import (
	"strings"

	"github.com/stevemurr/content-builder/apperr"
)

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return apperr.Validation(field, v, field+" is required")
	}
	return nil
}

// Validate checks a creator create payload and normalises its platforms.
func (c *Creator) Validate() error {
	if err := required("display_name", c.DisplayName); err != nil {
		return err
	}
	if c.FollowerCount != nil && *c.FollowerCount < 0 {
		return apperr.Validation("follower_count", *c.FollowerCount, "follower_count must be non-negative")
	}
	platforms, err := NormalizePlatforms(c.Platforms)
	if err != nil {
		return err
	}
	c.Platforms = platforms
	return nil
}

// Validate checks a set create payload.
func (s *ContentSet) Validate() error {
	for _, f := range []struct{ name, v string }{
		{"creator_id", s.CreatorID},
		{"title", s.Title},
		{"category", s.Category},
	} {
		if err := required(f.name, f.v); err != nil {
			return err
		}
	}
	if s.EstimatedTimeMinutes < 0 {
		return apperr.Validation("estimated_time_minutes", s.EstimatedTimeMinutes,
			"estimated_time_minutes must be non-negative; 0 selects the default")
	}
	return nil
}

// Validate checks a card create payload.
func (c *ContentCard) Validate() error {
	for _, f := range []struct{ name, v string }{
		{"set_id", c.SetID},
		{"creator_id", c.CreatorID},
		{"title", c.Title},
		{"summary", c.Summary},
	} {
		if err := required(f.name, f.v); err != nil {
			return err
		}
	}
	if c.OrderIndex < 0 {
		return apperr.Validation("order_index", c.OrderIndex,
			"order_index must be non-negative; 0 appends the card to its set")
	}
	return nil
}
