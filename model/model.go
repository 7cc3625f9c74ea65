// Package model defines the three record types managed by the content store
// and the patch types used to update them.
package model

import "time"

// Platform is one social or web presence of a creator.
type Platform struct {
	Platform string `json:"platform" jsonschema:"required"`
	Handle   string `json:"handle" jsonschema:"required"`
}

// Creator is the root entity: an author or channel owning content sets.
type Creator struct {
	CreatorID      string            `json:"creator_id" jsonschema:"required"`
	DisplayName    string            `json:"display_name" jsonschema:"required"`
	Platforms      []Platform        `json:"platforms"`
	AvatarURL      string            `json:"avatar_url,omitempty"`
	BannerURL      string            `json:"banner_url,omitempty"`
	Description    string            `json:"description"`
	Categories     []string          `json:"categories"`
	FollowerCount  *int              `json:"follower_count,omitempty" jsonschema:"minimum=0"`
	Verified       bool              `json:"verified"`
	SocialLinks    map[string]string `json:"social_links"`
	ExpertiseAreas []string          `json:"expertise_areas"`
	ContentStyle   string            `json:"content_style"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ContentSet is a titled collection of cards owned by one creator.
type ContentSet struct {
	SetID                string         `json:"set_id" jsonschema:"required"`
	CreatorID            string         `json:"creator_id" jsonschema:"required"`
	Title                string         `json:"title" jsonschema:"required"`
	Description          string         `json:"description"`
	Category             string         `json:"category" jsonschema:"required"`
	ThumbnailURL         string         `json:"thumbnail_url,omitempty"`
	BannerURL            string         `json:"banner_url,omitempty"`
	CardCount            int            `json:"card_count" jsonschema:"minimum=0"`
	EstimatedTimeMinutes int            `json:"estimated_time_minutes" jsonschema:"minimum=0" jsonschema_description:"0 or omitted on create means the default of 30"`
	DifficultyLevel      string         `json:"difficulty_level"`
	TargetAudience       string         `json:"target_audience"`
	SupportedNavigation  []string       `json:"supported_navigation"`
	ContentStyle         string         `json:"content_style"`
	Tags                 []string       `json:"tags"`
	Prerequisites        []string       `json:"prerequisites"`
	LearningOutcomes     []string       `json:"learning_outcomes"`
	Stats                map[string]any `json:"stats"`
	Status               string         `json:"status"`
	Language             string         `json:"language"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// Media describes one attachment of a card.
type Media struct {
	MediaType        string `json:"media_type"`
	URL              string `json:"url"`
	AltText          string `json:"alt_text,omitempty"`
	Source           string `json:"source,omitempty"`
	License          string `json:"license,omitempty"`
	ValidationStatus string `json:"validation_status,omitempty"`
	LastChecked      string `json:"last_checked,omitempty"`
}

// NavigationContext positions a card within one navigation mode.
type NavigationContext struct {
	Position    int            `json:"position"`
	TotalItems  int            `json:"total_items"`
	ContextData map[string]any `json:"context_data,omitempty"`
}

// ContentCard is one unit of content inside a set. OrderIndex is 1-based;
// 0 on create, which is also what an omitted field decodes to, means
// "append to the set". Negative values are rejected.
type ContentCard struct {
	CardID             string                       `json:"card_id" jsonschema:"required"`
	SetID              string                       `json:"set_id" jsonschema:"required"`
	CreatorID          string                       `json:"creator_id" jsonschema:"required"`
	Title              string                       `json:"title" jsonschema:"required"`
	Summary            string                       `json:"summary" jsonschema:"required"`
	DetailedContent    string                       `json:"detailed_content"`
	OrderIndex         int                          `json:"order_index" jsonschema:"minimum=0" jsonschema_description:"1-based position; 0 or omitted on create appends after the set's existing cards"`
	DomainData         map[string]any               `json:"domain_data"`
	Media              []Media                      `json:"media"`
	NavigationContexts map[string]NavigationContext `json:"navigation_contexts"`
	Tags               []string                     `json:"tags"`
	CreatedAt          time.Time                    `json:"created_at"`
	UpdatedAt          time.Time                    `json:"updated_at"`
}
