package models

import "time"

// StoryModel is an ephemeral media post that expires after a fixed TTL.
type StoryModel struct {
	Base
	AuthorID  string     `json:"author_id"  gorm:"index;not null"`
	Author    *UserModel `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Media     MediaRef   `json:"media"      gorm:"type:json;serializer:json"`
	Caption   string     `json:"caption"`
	ViewCount int        `json:"view_count" gorm:"default:0"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
}

func (StoryModel) TableName() string { return "stories" }

// StoryView records a unique viewer of a story.
type StoryView struct {
	EdgeBase
	StoryID  string `json:"story_id"  gorm:"uniqueIndex:idx_story_view;not null"`
	ViewerID string `json:"viewer_id" gorm:"uniqueIndex:idx_story_view;index;not null"`
}

func (StoryView) TableName() string { return "story_views" }
